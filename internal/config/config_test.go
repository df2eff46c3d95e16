package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadPlanConfigDefaults(t *testing.T) {
	t.Setenv("PLAN_PRICE", "")
	t.Setenv("PLAN_DAYS", "")

	p := LoadPlanConfig()
	assert.Equal(t, uint32(1000), p.Price)
	assert.Equal(t, 30, p.Days)
}

func TestLoadPlanConfigRejectsNonPositiveDays(t *testing.T) {
	t.Setenv("PLAN_PRICE", "1500")
	t.Setenv("PLAN_DAYS", "0")

	p := LoadPlanConfig()
	assert.Equal(t, uint32(1500), p.Price)
	assert.Equal(t, 30, p.Days)
}

func TestLoadUploadConfig(t *testing.T) {
	t.Setenv("UPLOAD_DIR", "/tmp/proofs")
	t.Setenv("UPLOAD_BASE_URL", "")
	t.Setenv("UPLOAD_MAX_BYTES", "-1")

	u := LoadUploadConfig()
	assert.Equal(t, "/tmp/proofs", u.Dir)
	assert.Equal(t, "/v1/proofs", u.BaseURL)
	assert.Equal(t, int64(5<<20), u.MaxBytes)
}

func TestLoadRateLimitConfigClampsTTL(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "7")

	c := LoadRateLimitConfig()
	assert.Equal(t, 7, c.Capacity)
	assert.Equal(t, 5*time.Minute, c.TTL)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG_ON", "yes")
	t.Setenv("FLAG_OFF", "0")
	t.Setenv("FLAG_JUNK", "maybe")

	assert.True(t, envBool("FLAG_ON", false))
	assert.False(t, envBool("FLAG_OFF", true))
	assert.True(t, envBool("FLAG_JUNK", true))
	assert.False(t, envBool("FLAG_MISSING", false))
}

func TestParseMethods(t *testing.T) {
	m := parseMethods(" get, head ,,")
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, m)
}
