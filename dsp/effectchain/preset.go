package effectchain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// presetSlot is a JSON-serializable slot of a rack preset.
type presetSlot struct {
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled"`
	Params  any    `json:"params"`
}

// presetState is the root JSON structure of a rack preset.
type presetState struct {
	Slots []presetSlot `json:"slots"`
}

// parsePreset decodes a preset and checks that every slot exists in the
// rack before anything is applied.
func (r *Rack) parsePreset(raw []byte) ([]presetSlot, error) {
	var state presetState

	err := json.Unmarshal(raw, &state)
	if err != nil {
		return nil, fmt.Errorf("invalid rack preset json: %w", err)
	}

	for i, s := range state.Slots {
		if _, err := r.slot(s.Type); err != nil {
			return nil, fmt.Errorf("rack preset slot %d: %w", i, err)
		}
	}

	return state.Slots, nil
}

// LoadPreset applies a JSON preset of the form
//
//	{"slots": [{"type": "flanger", "enabled": true, "params": {"mix": 0.3, "wave": "square"}}]}
//
// Params are merged into the slot's knobs, then the slot is enabled or
// disabled when "enabled" is given. Slots not named keep their state. A
// preset naming an unknown slot is rejected as a whole; errors of
// individual slots are joined and do not stop the others.
func (r *Rack) LoadPreset(raw []byte) error {
	slots, err := r.parsePreset(raw)
	if err != nil {
		return err
	}

	var errs []error

	r.ctx.Update(func() {
		for _, s := range slots {
			if err := r.configure(s.Type, parseNodeParams(s.Params)); err != nil {
				errs = append(errs, err)
				continue
			}

			switch {
			case s.Enabled == nil:
			case *s.Enabled:
				err = r.enable(s.Type)
			default:
				err = r.disable(s.Type)
			}

			if err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		r.logger.WithField("errors", len(errs)).Warn("preset applied with errors")
	}

	return errors.Join(errs...)
}
