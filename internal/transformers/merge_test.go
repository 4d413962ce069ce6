package transformers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mihaisavezi/llmgateway/internal/config"
)

func TestEffectiveRefs_UsesDefaultsWhenNoOverride(t *testing.T) {
	got := EffectiveRefs(nil, nil, []string{"a.One", "a.Two"}, nil)

	assert.Equal(t, []config.TransformerRef{{Class: "a.One"}, {Class: "a.Two"}}, got)
}

func TestEffectiveRefs_OverrideReplacesDefaults(t *testing.T) {
	override := []config.TransformerRef{{Class: "custom.Only"}}

	got := EffectiveRefs(nil, &override, []string{"a.One", "a.Two"}, nil)

	assert.Equal(t, override, got)
}

func TestEffectiveRefs_PrePostWrapBase(t *testing.T) {
	pre := []config.TransformerRef{{Class: "pre.One"}}
	post := []config.TransformerRef{{Class: "post.One"}}

	got := EffectiveRefs(pre, nil, []string{"base.One"}, post)

	assert.Equal(t, []config.TransformerRef{
		{Class: "pre.One"},
		{Class: "base.One"},
		{Class: "post.One"},
	}, got)
}

func TestEffectiveRefs_EmptyOverrideMeansNoTransformers(t *testing.T) {
	empty := []config.TransformerRef{}

	got := EffectiveRefs(nil, &empty, []string{"a.One"}, nil)

	assert.Empty(t, got)
}
