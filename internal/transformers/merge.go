package transformers

import "github.com/mihaisavezi/llmgateway/internal/config"

// EffectiveRefs computes the ordered transformer ref list for one stage,
// applying the merge policy from spec §4.3: pre ++ (override if provided
// else the descriptor's defaults, expressed as class names here) ++ post.
// override is nil when the ProviderConfig did not set a full override for
// this stage, distinguishing "no override" from "override to []".
func EffectiveRefs(pre []config.TransformerRef, override *[]config.TransformerRef, defaults []string, post []config.TransformerRef) []config.TransformerRef {
	var base []config.TransformerRef

	if override != nil {
		base = *override
	} else {
		base = make([]config.TransformerRef, len(defaults))
		for i, class := range defaults {
			base[i] = config.TransformerRef{Class: class}
		}
	}

	out := make([]config.TransformerRef, 0, len(pre)+len(base)+len(post))
	out = append(out, pre...)
	out = append(out, base...)
	out = append(out, post...)

	return out
}
