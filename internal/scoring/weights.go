package scoring

import "time"

// Dimension weights one penalized cookie group.
//
//	deduction = round(count/total*RatioWeight + min(VolumeCap, volume(count)))
//
// where volume is log10(count+1)*VolumeMultiplier, or count*VolumeMultiplier
// when Linear is set.
type Dimension struct {
	RatioWeight      float64 `json:"ratio_weight" yaml:"ratio_weight" validate:"min=0"`
	VolumeMultiplier float64 `json:"volume_multiplier" yaml:"volume_multiplier" validate:"min=0"`
	VolumeCap        float64 `json:"volume_cap" yaml:"volume_cap" validate:"min=0"`
	Linear           bool    `json:"linear,omitempty" yaml:"linear,omitempty"`
}

// Weights holds every tunable of the scorer. These are heuristic and can be
// tuned over time.
type Weights struct {
	Tracking       Dimension `json:"tracking" yaml:"tracking"`
	Advertising    Dimension `json:"advertising" yaml:"advertising"`
	Fingerprinting Dimension `json:"fingerprinting" yaml:"fingerprinting"`

	// LongLivedAfter is how far in the future an expiry must be to count as long-lived.
	LongLivedAfter  time.Duration `json:"long_lived_after" yaml:"long_lived_after"`
	LongLivedPoints int           `json:"long_lived_points" yaml:"long_lived_points" validate:"min=0"`

	SensitiveKeywords       []string `json:"sensitive_keywords" yaml:"sensitive_keywords"`
	InsecureSensitivePoints int      `json:"insecure_sensitive_points" yaml:"insecure_sensitive_points" validate:"min=0"`

	// LocalStorageUnitKB is the size of one localStorage penalty unit.
	LocalStorageUnitKB     int `json:"local_storage_unit_kb" yaml:"local_storage_unit_kb" validate:"min=1"`
	LocalStorageUnitPoints int `json:"local_storage_unit_points" yaml:"local_storage_unit_points" validate:"min=0"`
}

// DefaultWeights returns the canonical ratio-based weights.
func DefaultWeights() Weights {
	return Weights{
		Tracking:       Dimension{RatioWeight: 30, VolumeMultiplier: 3, VolumeCap: 10},
		Advertising:    Dimension{RatioWeight: 25, VolumeMultiplier: 4, VolumeCap: 10},
		Fingerprinting: Dimension{RatioWeight: 20, VolumeMultiplier: 2, VolumeCap: 15, Linear: true},

		LongLivedAfter:  365 * 24 * time.Hour,
		LongLivedPoints: 1,

		SensitiveKeywords:       []string{"bank", "paypal", "stripe", "auth", "login", "account", "payment"},
		InsecureSensitivePoints: 2,

		LocalStorageUnitKB:     100,
		LocalStorageUnitPoints: 1,
	}
}

// Deduction types, in the order they are evaluated and reported.
const (
	DeductionTracking          = "tracking"
	DeductionAdvertising       = "advertising"
	DeductionFingerprinting    = "fingerprinting"
	DeductionLongLived         = "long_lived"
	DeductionInsecureSensitive = "insecure_sensitive"
	DeductionLocalStorage      = "local_storage"
)

// Grade maps a score to a letter band for compact display.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
