package services

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/generator"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"github.com/fyrsmithlabs/sitegen/internal/wordpress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	var _ Registry = (*registry)(nil)

	reg := NewRegistry(Options{})
	assert.Nil(t, reg.Generator())
	assert.Nil(t, reg.Scrubber())
	assert.Nil(t, reg.Connector())
	assert.Nil(t, reg.Orchestrator())
	assert.Equal(t, "mock", reg.AIMode())
}

func TestBuild_Defaults(t *testing.T) {
	reg, err := Build(config.Default(), BuildOptions{})
	require.NoError(t, err)

	assert.IsType(t, &generator.Mock{}, reg.Generator())
	assert.Equal(t, "mock", reg.AIMode())
	assert.IsType(t, &wordpress.Connector{}, reg.Connector())
	assert.NotNil(t, reg.Scrubber())
	assert.NotNil(t, reg.Orchestrator())
}

func TestBuild_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Generator.Provider = "palm"
	cfg.Generator.APIKey = "sk-test"

	_, err := Build(cfg, BuildOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown generator provider")
}

func TestBuild_RunsAgainstFakeSite(t *testing.T) {
	fake := wordpress.NewFake()
	reg, err := Build(config.Default(), BuildOptions{Connector: fake.Connector()})
	require.NoError(t, err)

	res := reg.Orchestrator().Run(context.Background(), stage.BusinessInput{
		BusinessName: "Joe's Pizza",
		BusinessType: "restaurant",
		Hosting: &stage.Credentials{
			SiteURL:  "https://joes.example",
			Username: "admin",
			Password: "abcd efgh ijkl mnop qrst uvwx",
		},
	}, nil)

	require.True(t, res.Completed(), res.Error)
	assert.Equal(t, stage.StatusOK, res.StageStatus[stage.Deployment])
	assert.Equal(t, "https://joes.example", res.SiteSummary.SiteURL)
	assert.Equal(t, 8, res.SiteSummary.PagesCreated)
}
