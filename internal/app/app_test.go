package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbridge/config"
	"bloodbridge/internal/adapters/email"
	"bloodbridge/internal/services"
)

func TestMatchingConfig(t *testing.T) {
	got := MatchingConfig(config.MatchConfig{
		SearchTimeout:           2 * time.Second,
		MaxRadiusKm:             300,
		HistoryConcurrency:      3,
		FallbackResponseRate:    0.4,
		FallbackResponseMinutes: 45,
		FallbackCompletionRate:  0.2,
	})
	assert.Equal(t, 2*time.Second, got.SearchTimeout)
	assert.Equal(t, 300.0, got.MaxRadiusKm)
	assert.Equal(t, 3, got.HistoryConcurrency)
	assert.Equal(t, 0.4, got.HistoryDefaults.ResponseRate)
	assert.Equal(t, 45.0, got.HistoryDefaults.AvgResponseMinutes)
	assert.Equal(t, 0.2, got.HistoryDefaults.CompletionRate)

	zero := MatchingConfig(config.MatchConfig{})
	def := services.DefaultMatchingConfig()
	assert.Equal(t, def.SearchTimeout, zero.SearchTimeout)
	assert.Equal(t, def.MaxRadiusKm, zero.MaxRadiusKm)
	assert.Equal(t, def.HistoryConcurrency, zero.HistoryConcurrency)
}

func TestMailerConfig(t *testing.T) {
	got := MailerConfig(config.EmailConfig{
		Provider:           "ses",
		FromAddress:        "alerts@bloodbridge.example.org",
		FromName:           "BloodBridge",
		AWSRegion:          "eu-west-1",
		AWSAccessKeyID:     "AKIA",
		AWSSecretAccessKey: "secret",
	})
	assert.Equal(t, email.ProviderSES, got.Provider)
	assert.Equal(t, "eu-west-1", got.SES.Region)
	assert.Equal(t, "AKIA", got.SES.AccessKeyID)
	assert.Equal(t, "secret", got.SES.SecretAccessKey)
}

func TestEnsureAlertTopic_NoBrokers(t *testing.T) {
	err := EnsureAlertTopic(context.Background(), &config.Config{})
	require.ErrorIs(t, err, ErrNoBrokers)
}

func TestClose_ReverseOrder(t *testing.T) {
	var order []int
	a := &App{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}
	a.Close()
	a.Close()
	assert.Equal(t, []int{2, 1}, order)
}
