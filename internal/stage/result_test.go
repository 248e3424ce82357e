package stage

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 0.87, 0.87},
		{"negative", -0.3, 0},
		{"above one", 1.7, 1},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := (&Result{Confidence: tt.in}).Normalize()
			assert.Equal(t, tt.want, r.Confidence)
			assert.NotNil(t, r.Payload)
			assert.NotNil(t, r.Assumptions)
			assert.NotNil(t, r.NextSteps)
		})
	}
}

func TestResult_JSONShape(t *testing.T) {
	r := (&Result{Status: StatusOK, Action: "theme_selected"}).Normalize()

	data, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"status": "ok",
		"action": "theme_selected",
		"result_summary": "",
		"result": {},
		"assumptions": [],
		"confidence": 0,
		"next_steps": []
	}`, string(data))
}

func TestParseEnvelope(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env, err := ParseEnvelope(map[string]any{
			"status":     "ok",
			"action":     "x",
			"result":     map[string]any{"a": 1.0},
			"confidence": 0.5,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusOK, env.Status)
		require.NotNil(t, env.Confidence)
		assert.Equal(t, 0.5, *env.Confidence)
		assert.JSONEq(t, `{"a":1}`, string(env.Result))
	})

	t.Run("missing confidence", func(t *testing.T) {
		_, err := ParseEnvelope(map[string]any{"status": "ok"})
		assert.ErrorContains(t, err, "confidence missing")
	})

	t.Run("string confidence", func(t *testing.T) {
		_, err := ParseEnvelope(map[string]any{"status": "ok", "confidence": "high"})
		assert.ErrorContains(t, err, "want number")
	})

	t.Run("missing status", func(t *testing.T) {
		_, err := ParseEnvelope(map[string]any{"confidence": 0.5})
		assert.ErrorContains(t, err, "status missing")
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := ParseEnvelope(map[string]any{"status": "great", "confidence": 0.5})
		assert.ErrorContains(t, err, "unknown status")
	})
}

func TestPayloadAs(t *testing.T) {
	r := &Result{Payload: &DesignResult{PrimaryTheme: Theme{Slug: "astra"}}}

	d, ok := PayloadAs[DesignResult](r)
	require.True(t, ok)
	assert.Equal(t, "astra", d.PrimaryTheme.Slug)

	_, ok = PayloadAs[PlanningResult](r)
	assert.False(t, ok)

	_, ok = PayloadAs[PlanningResult](nil)
	assert.False(t, ok)
}

func TestExecutorFunc(t *testing.T) {
	var exec Executor[string] = ExecutorFunc[string](func(_ context.Context, in string) (*Result, error) {
		return &Result{Status: StatusOK, Summary: in}, nil
	})

	res, err := exec.Execute(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Summary)
}

func TestAssumptions(t *testing.T) {
	var a Assumptions
	a.Add("Using default description")
	a.Add("Using default goals")

	assert.Equal(t, []string{"ASSUME: Using default description", "ASSUME: Using default goals"}, []string(a))

	merged := Merge([]string{"from generator"}, a)
	assert.Equal(t, []string{"from generator", "ASSUME: Using default description", "ASSUME: Using default goals"}, merged)
}

func TestBusinessInput(t *testing.T) {
	assert.Error(t, BusinessInput{BusinessType: "restaurant"}.Validate())
	assert.Error(t, BusinessInput{BusinessName: "  ", BusinessType: "restaurant"}.Validate())
	assert.Error(t, BusinessInput{BusinessName: "Joe's Pizza"}.Validate())
	assert.NoError(t, BusinessInput{BusinessName: "Joe's Pizza", BusinessType: "restaurant"}.Validate())

	in := BusinessInput{BusinessName: "Joe's Pizza", BusinessType: "restaurant", Tone: "playful"}
	out := in.WithDefaults()
	assert.Equal(t, DefaultTargetAudience, out.TargetAudience)
	assert.Equal(t, "playful", out.Tone)
	assert.Equal(t, DefaultDesignPreference, out.DesignPreference)
	assert.Empty(t, in.TargetAudience, "original must not change")
}

func TestCredentials(t *testing.T) {
	var nilCreds *Credentials
	assert.False(t, nilCreds.Complete())

	c := &Credentials{SiteURL: "https://joes.example.com", Username: "admin"}
	assert.False(t, c.Complete())

	c.Password = "abcd efgh"
	assert.True(t, c.Complete())
	assert.False(t, c.HasShell())
	assert.Equal(t, 22, c.Port())

	c.SSHHost, c.SSHUser, c.SSHKey = "joes.example.com", "deploy", "/keys/id_ed25519"
	assert.True(t, c.HasShell())

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "abcd efgh")
}

func TestFeature_Unmarshal(t *testing.T) {
	var features []Feature
	require.NoError(t, json.Unmarshal([]byte(`["E-Commerce Store", {"name": "Contact Form", "priority": "high", "implementation": "plugin"}]`), &features))

	require.Len(t, features, 2)
	assert.Equal(t, "E-Commerce Store", features[0].Name)
	assert.True(t, features[0].Mentions("e-commerce"))
	assert.Equal(t, "plugin", features[1].Implementation)
	assert.True(t, features[1].Mentions("PLUGIN"))
}

func TestTerm_Unmarshal(t *testing.T) {
	var terms []Term
	require.NoError(t, json.Unmarshal([]byte(`["News", 7, "12"]`), &terms))

	assert.Equal(t, []Term{{Name: "News"}, {ID: 7}, {ID: 12}}, terms)

	out, err := json.Marshal(terms)
	require.NoError(t, err)
	assert.JSONEq(t, `["News", 7, 12]`, string(out))
}
