package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports per-student targeting, class-level cohorts, and time windows.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	studentOverrides map[string]map[string]bool // studentID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Students are assigned based on hash of their ID
	RolloutPercent int

	// Class-level targeting (e.g., "9", "11")
	// Empty means all class levels
	TargetClassLevels []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	StudentID  string // internal student ID
	ClassLevel string // student class level (e.g., "9")
	IsAdmin    bool   // is admin user
}

// Predefined feature flag names.
const (
	// === Account Features ===
	FeatureAccountRegistration = "account.registration" // Accept new registrations
	FeatureAccountProfileEdit  = "account.profile_edit" // Allow profile updates

	// === Assessment Features ===
	FeatureScoresEntry       = "scores.entry"        // Accept new test scores
	FeatureScoresTrendReport = "scores.trend_report" // Per-subject trend verdicts
	FeatureScoresAllVersions = "scores.all_versions" // Expose pre-change history

	// === Survey Features ===
	FeatureSurveySubmission = "survey.submission" // Accept career surveys

	// === Guidance Features (core of the product) ===
	FeatureGuidanceRequests = "guidance.requests" // Allow AI guidance asks
	FeatureGuidanceCache    = "guidance.cache"    // Serve cached guidance text
	FeatureGuidanceRefresh  = "guidance.refresh"  // Allow explicit cache bypass
	FeatureGuidanceHistory  = "guidance.history"  // Expose the guidance archive

	// === Experimental Features ===
	FeatureExperimentalPromptVariants = "experimental.prompt_variants" // A/B prompt wording
	FeatureExperimentalAnalytics      = "experimental.analytics"       // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		studentOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Account features - enabled by default
	ff.features[FeatureAccountRegistration] = &Feature{
		Name:           FeatureAccountRegistration,
		Description:    "Accept new student registrations",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAccountProfileEdit] = &Feature{
		Name:           FeatureAccountProfileEdit,
		Description:    "Allow students to edit their profile",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Assessment features
	ff.features[FeatureScoresEntry] = &Feature{
		Name:           FeatureScoresEntry,
		Description:    "Accept new test score records",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScoresTrendReport] = &Feature{
		Name:           FeatureScoresTrendReport,
		Description:    "Show per-subject trend verdicts",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScoresAllVersions] = &Feature{
		Name:           FeatureScoresAllVersions,
		Description:    "Expose history recorded before a subject change",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Survey features
	ff.features[FeatureSurveySubmission] = &Feature{
		Name:           FeatureSurveySubmission,
		Description:    "Accept career questionnaire submissions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Guidance features - CORE of the product, enabled by default
	ff.features[FeatureGuidanceRequests] = &Feature{
		Name:           FeatureGuidanceRequests,
		Description:    "Allow AI guidance requests",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGuidanceCache] = &Feature{
		Name:           FeatureGuidanceCache,
		Description:    "Serve cached guidance instead of re-asking the model",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGuidanceRefresh] = &Feature{
		Name:           FeatureGuidanceRefresh,
		Description:    "Allow explicit cache bypass per request",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGuidanceHistory] = &Feature{
		Name:           FeatureGuidanceHistory,
		Description:    "Expose archived guidance exchanges",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalPromptVariants] = &Feature{
		Name:           FeatureExperimentalPromptVariants,
		Description:    "A/B test alternative prompt wording",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_GUIDANCE_CACHE=true
// Example: FEATURE_EXPERIMENTAL_PROMPT_VARIANTS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "guidance.cache" -> "FEATURE_GUIDANCE_CACHE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check student overrides first
	if ctx != nil && ctx.StudentID != "" {
		if overrides, ok := ff.studentOverrides[ctx.StudentID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check class-level targeting
	if len(feature.TargetClassLevels) > 0 && ctx != nil && ctx.ClassLevel != "" {
		classMatch := false
		for _, c := range feature.TargetClassLevels {
			if c == ctx.ClassLevel {
				classMatch = true
				break
			}
		}
		if !classMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.StudentID != "" {
		return ff.isInRollout(ctx.StudentID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a student is in the rollout percentage.
// Uses consistent hashing so students stay in their bucket.
func (ff *FeatureFlags) isInRollout(studentID, featureName string, percent int) bool {
	// Create a consistent hash for this student+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(studentID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a student.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	feature, ok := ff.features[featureName]
	ff.mu.RUnlock()

	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 || ctx == nil {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.StudentID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetStudentOverride sets a feature override for a specific student.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetStudentOverride(studentID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.studentOverrides[studentID]; !ok {
		ff.studentOverrides[studentID] = make(map[string]bool)
	}
	ff.studentOverrides[studentID][featureName] = enabled
}

// ClearStudentOverrides removes all overrides for a student.
func (ff *FeatureFlags) ClearStudentOverrides(studentID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.studentOverrides, studentID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// GuidanceEnabled checks if the guidance pipeline is usable at all.
func (ff *FeatureFlags) GuidanceEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureGuidanceRequests, ctx)
}

// GuidanceCacheEnabled checks if cached guidance may be served.
func (ff *FeatureFlags) GuidanceCacheEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureGuidanceCache, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
