package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. The advisory instructions are identical across requests, so
// repeated validations read them from the prompt cache.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}
