package shed

import (
	"context"

	"github.com/cockroachdb/errors"

	"shed/lorebook"
)

// Phase is the lifecycle position of one entry.
//
//	NoSlough     --molt/enable-->     SloughOnly | Shed*
//	SloughOnly   --molt-->            ShedEnabled | ShedDisabled
//	ShedDisabled --enable-->          ShedEnabled   (skin restored)
//	ShedEnabled  --disable-->         ShedDisabled  (slough restored)
//	Shed*        --unshed-->          SloughOnly    (enabled=false)
type Phase int

const (
	PhaseNoSlough Phase = iota
	PhaseSloughOnly
	PhaseShedDisabled
	PhaseShedEnabled
)

func (p Phase) String() string {
	switch p {
	case PhaseNoSlough:
		return "no-slough"
	case PhaseSloughOnly:
		return "slough-only"
	case PhaseShedDisabled:
		return "shed-disabled"
	case PhaseShedEnabled:
		return "shed-enabled"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseNoSlough, PhaseSloughOnly, PhaseShedDisabled, PhaseShedEnabled} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return errors.Newf("unknown phase %q", text)
}

// Snapshot is everything stored for one entry.
type Snapshot struct {
	Entry  lorebook.Entry `json:"entry"`
	Config Config         `json:"config"`
	Slough *string        `json:"slough"`
	Skin   *string        `json:"skin"`
	Phase  Phase          `json:"phase"`
}

func phaseOf(cfg Config, slough, skin *string) Phase {
	switch {
	case slough == nil:
		return PhaseNoSlough
	case skin == nil:
		return PhaseSloughOnly
	case cfg.Enabled:
		return PhaseShedEnabled
	default:
		return PhaseShedDisabled
	}
}

// entryState is the stored state loaded at the start of an operation.
type entryState struct {
	cfg       Config
	hasConfig bool
	slough    *string
	skin      *string
}

func (s entryState) phase() Phase {
	return phaseOf(s.cfg, s.slough, s.skin)
}

func (e *Engine) loadState(ctx context.Context, id string) (entryState, error) {
	var st entryState
	cfg := DefaultConfig()
	ok, err := e.stores.Story.Get(ctx, ConfigKey(id), &cfg)
	if err != nil {
		return st, errors.Wrap(err, "load shed config")
	}
	st.cfg, st.hasConfig = cfg, ok

	if st.slough, err = e.loadString(ctx, e.stores.Story.Get, SloughKey(id)); err != nil {
		return st, errors.Wrap(err, "load slough")
	}
	if st.skin, err = e.loadString(ctx, e.stores.History.Get, SkinKey(id)); err != nil {
		return st, errors.Wrap(err, "load skin")
	}
	return st, nil
}

func (e *Engine) loadString(ctx context.Context, get func(context.Context, string, any) (bool, error), key string) (*string, error) {
	var v string
	ok, err := get(ctx, key, &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
