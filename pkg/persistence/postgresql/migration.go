package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT false,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				execution_count BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_flows_is_active ON flows(is_active);
			CREATE INDEX idx_flows_created_at ON flows(created_at);
		`,
	}
}
