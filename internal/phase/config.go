package phase

import "fmt"

// Config is the static per-phase gating configuration.
type Config struct {
	// QualityThreshold is the readiness score (0-1) required to leave the
	// phase on quality grounds.
	QualityThreshold float64 `koanf:"quality_threshold" json:"quality_threshold"`

	// MinDataQuality is the minimum content quality (0-100) required of the
	// relevant scores before the phase can be entered or left.
	MinDataQuality int `koanf:"min_data_quality" json:"min_data_quality"`

	// MinMessages is the minimum conversation length before a quality-based
	// transition out of the phase is considered.
	MinMessages int `koanf:"min_messages" json:"min_messages"`

	// TimeoutMessages is the number of turns in the phase after which a
	// timeout-triggered transition is offered.
	TimeoutMessages int `koanf:"timeout_messages" json:"timeout_messages"`

	// RequiresData lists the dotted data paths that must exist in session
	// state before the phase can be entered.
	RequiresData []string `koanf:"requires_data" json:"requires_data,omitempty"`
}

// Table maps each phase to its configuration.
type Table map[Phase]Config

// DefaultTable returns the built-in phase configuration.
func DefaultTable() Table {
	return Table{
		Discovery: {
			QualityThreshold: 0.6,
			MinDataQuality:   40,
			MinMessages:      3,
			TimeoutMessages:  10,
		},
		Refinement: {
			QualityThreshold: 0.7,
			MinDataQuality:   60,
			MinMessages:      2,
			TimeoutMessages:  10,
			RequiresData:     []string{"okrData.objective"},
		},
		KRDiscovery: {
			QualityThreshold: 0.6,
			MinDataQuality:   50,
			MinMessages:      2,
			TimeoutMessages:  12,
			RequiresData:     []string{"okrData.objective"},
		},
		Validation: {
			QualityThreshold: 0.75,
			MinDataQuality:   70,
			MinMessages:      2,
			TimeoutMessages:  15,
			RequiresData:     []string{"okrData.objective", "okrData.keyResults"},
		},
		Completed: {
			QualityThreshold: 1.0,
			MinDataQuality:   70,
			RequiresData:     []string{"okrData.objective", "okrData.keyResults"},
		},
	}
}

// Validate checks that the table covers every phase with sane bounds.
func (t Table) Validate() error {
	for _, p := range AllPhases() {
		cfg, ok := t[p]
		if !ok {
			return fmt.Errorf("phase %s missing from config table", p)
		}
		if cfg.QualityThreshold < 0 || cfg.QualityThreshold > 1 {
			return fmt.Errorf("phase %s: quality_threshold must be in [0,1], got %v", p, cfg.QualityThreshold)
		}
		if cfg.MinDataQuality < 0 || cfg.MinDataQuality > 100 {
			return fmt.Errorf("phase %s: min_data_quality must be in [0,100], got %d", p, cfg.MinDataQuality)
		}
	}
	return nil
}
