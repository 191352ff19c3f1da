package request

// SubmitAudioRequest is the payload for submitting text for audio generation.
type SubmitAudioRequest struct {
	Content        string `json:"content"`
	DebugMode      bool   `json:"debug_mode,omitempty"`
	MaxWaitMinutes int    `json:"max_wait_minutes,omitempty"`
}

// SubmitFromCacheRequest replays previously cached content. An empty key
// means the most recently cached entry.
type SubmitFromCacheRequest struct {
	CacheKey       string `json:"cache_key,omitempty"`
	DebugMode      bool   `json:"debug_mode,omitempty"`
	MaxWaitMinutes int    `json:"max_wait_minutes,omitempty"`
}
