package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOneshot_RestartPolicyWins(t *testing.T) {
	tests := []struct {
		name    string
		service string
		restart string
		want    bool
	}{
		{"no policy is oneshot", "web", "no", true},
		{"false policy is oneshot", "web", "false", true},
		{"always is long-running", "db-init", "always", false},
		{"unless-stopped is long-running", "migration-runner", "unless-stopped", false},
		{"on-failure is long-running", "seed-job", "on-failure", false},
		{"policy beats name pattern", "minio-init", "always", false},
		{"oneshot policy on plain name", "api", "no", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOneshot(tt.service, tt.restart))
		})
	}
}

func TestClassifyOneshot_NameHeuristic(t *testing.T) {
	tests := []struct {
		service string
		want    bool
	}{
		{"db-init", true},
		{"minio-init", true},
		{"setup-proxy", true}, // known heuristic limitation
		{"migrations", true},
		{"DB-MIGRATE", true},
		{"seeder", true},
		{"bootstrap-env", true},
		{"web", false},
		{"api", false},
		{"postgres", false},
		{"nginx", false},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOneshot(tt.service, ""))
		})
	}
}

func TestClassifyOneshot_UnrecognizedPolicyFallsBack(t *testing.T) {
	assert.True(t, classifyOneshot("db-init", "sometimes"))
	assert.False(t, classifyOneshot("web", "sometimes"))
}
