package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE sla_policies (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT false,
				is_default BOOLEAN NOT NULL DEFAULT false,
				targets JSONB NOT NULL DEFAULT '{}',
				escalation_level1 INT NOT NULL DEFAULT 0,
				escalation_level2 INT NOT NULL DEFAULT 0,
				use_business_hours BOOLEAN NOT NULL DEFAULT false,
				business_hours JSONB NOT NULL DEFAULT '{}',
				pause_on_waiting BOOLEAN NOT NULL DEFAULT false,
				pause_on_hold BOOLEAN NOT NULL DEFAULT false,
				pause_off_hours BOOLEAN NOT NULL DEFAULT false,
				department_ids JSONB NOT NULL DEFAULT '[]',
				category_ids JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_sla_policies_active ON sla_policies(active);
			CREATE INDEX idx_sla_policies_created_at ON sla_policies(created_at);

			CREATE TABLE sla_timers (
				id UUID PRIMARY KEY,
				ticket_id VARCHAR(255) NOT NULL,
				policy_id UUID,
				type VARCHAR(20) NOT NULL CHECK (type IN ('response', 'resolution')),
				status VARCHAR(20) NOT NULL CHECK (status IN ('running', 'paused', 'breached', 'stopped')),
				priority VARCHAR(50) NOT NULL DEFAULT '',
				pause_reason TEXT NOT NULL DEFAULT '',
				target_minutes INT NOT NULL,
				remaining_minutes INT NOT NULL,
				elapsed_minutes INT NOT NULL DEFAULT 0,
				total_paused_minutes INT NOT NULL DEFAULT 0,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				paused_at TIMESTAMP WITH TIME ZONE,
				resumed_at TIMESTAMP WITH TIME ZONE,
				breached_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				level1_notified_at TIMESTAMP WITH TIME ZONE,
				level2_notified_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_sla_timers_ticket_id ON sla_timers(ticket_id);
			CREATE INDEX idx_sla_timers_status ON sla_timers(status);

			CREATE TABLE sla_breaches (
				id UUID PRIMARY KEY,
				timer_id UUID NOT NULL,
				ticket_id VARCHAR(255) NOT NULL,
				type VARCHAR(20) NOT NULL,
				target_minutes INT NOT NULL,
				elapsed_minutes INT NOT NULL,
				overage_minutes INT NOT NULL,
				ticket_snapshot JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_sla_breaches_ticket_id ON sla_breaches(ticket_id);
			CREATE INDEX idx_sla_breaches_timer_id ON sla_breaches(timer_id);

			CREATE TABLE sla_escalations (
				id UUID PRIMARY KEY,
				ticket_id VARCHAR(255) NOT NULL,
				timer_id UUID,
				level INT NOT NULL,
				reason TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_sla_escalations_ticket_id ON sla_escalations(ticket_id);

			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT false,
				is_draft BOOLEAN NOT NULL DEFAULT true,
				policy_id UUID,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_active_draft ON workflows(is_active, is_draft);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
		`,
	}
}
