package database

import "context"

// GetStats returns row counts across the schema.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM wordpress_sites", &s.Sites},
		{"SELECT COUNT(*) FROM automation_settings", &s.Automations},
		{"SELECT COUNT(*) FROM automation_executions WHERE status = 'completed'", &s.ExecutionsCompleted},
		{"SELECT COUNT(*) FROM automation_executions WHERE status = 'failed'", &s.ExecutionsFailed},
		{"SELECT COUNT(*) FROM automation_executions WHERE status = 'running'", &s.ExecutionsRunning},
		{"SELECT COUNT(*) FROM published_posts", &s.PublishedPosts},
		{"SELECT COUNT(*) FROM automated_posts", &s.AutomatedPosts},
	}
	for _, c := range counts {
		if err := db.conn.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
