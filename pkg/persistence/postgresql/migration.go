package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE automation_workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				store_id VARCHAR(255) NOT NULL,
				trigger_config JSONB NOT NULL,
				actions JSONB NOT NULL DEFAULT '[]',
				enabled BOOLEAN NOT NULL DEFAULT FALSE,
				version INTEGER NOT NULL DEFAULT 1,
				run_count BIGINT NOT NULL DEFAULT 0,
				success_count BIGINT NOT NULL DEFAULT 0,
				error_count BIGINT NOT NULL DEFAULT 0,
				tags JSONB NOT NULL DEFAULT '[]',
				last_run_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_automation_workflows_store_id ON automation_workflows(store_id);
			CREATE INDEX idx_automation_workflows_enabled ON automation_workflows(enabled);
			CREATE INDEX idx_automation_workflows_created_at ON automation_workflows(created_at);
			CREATE INDEX idx_automation_workflows_deleted_at ON automation_workflows(deleted_at);
		`,
	}
}
