package background

import (
	"testing"
	"time"

	"tailtown/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJobScheduler_RegistersEnabledJobs(t *testing.T) {
	m := jobs.NewMaintenance(nil, nil, nil, time.Hour, zap.NewNop())
	js, err := NewJobScheduler(m, Intervals{
		ExpirePending:   time.Hour,
		WarmTenantCache: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	js.Start()
	defer func() { _ = js.Stop() }()

	assert.ElementsMatch(t, []string{JobExpirePending, JobWarmTenantCache}, js.JobNames())

	require.NoError(t, js.RemoveJob(JobWarmTenantCache))
	assert.Equal(t, []string{JobExpirePending}, js.JobNames())
}
