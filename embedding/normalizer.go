package embedding

// Normalizer turns any accepted Input into a canonical Vector.
type Normalizer struct {
	cfg Config
	dec *Decoder
}

// NewNormalizer creates a normalizer with the given limits and policy.
func NewNormalizer(cfg Config) (*Normalizer, error) {
	dec, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	return &Normalizer{cfg: cfg, dec: dec}, nil
}

// Config returns the limits in effect.
func (n *Normalizer) Config() Config { return n.cfg }

// Decoder returns the decoder used for Base64 input.
func (n *Normalizer) Decoder() *Decoder { return n.dec }

// Normalize returns the canonical vector for in, or an *Error.
func (n *Normalizer) Normalize(in Input) (Vector, error) {
	v, _, err := n.NormalizeWithReport(in)
	return v, err
}

// NormalizeWithReport dispatches on the input shape and validates the result.
//
// Under PolicyStrict the result must be exactly CanonicalLength finite values:
// a 600-element Values input fails with KindWrongLength even though the same
// count of decoded words would have been truncated, and decoded Base64 that
// kept tolerated NaN/Inf values fails with KindNonFiniteValue.
//
// Under PolicyLenient every shape is reconciled to CanonicalLength, the
// non-finite sample bound applies, and tolerated non-finite values become 0.
func (n *Normalizer) NormalizeWithReport(in Input) (Vector, Report, error) {
	var (
		candidate Vector
		rep       Report
	)

	switch v := in.(type) {
	case Base64:
		decoded, decRep, err := n.dec.DecodeWithReport(string(v))
		if err != nil {
			return nil, decRep, &Error{Kind: KindDecodeFailed, Op: "normalize", Err: err}
		}
		candidate, rep = decoded, decRep
	case Values:
		candidate = Vector(v).Clone()
		rep.Shape = ShapeValues
	case Wrapped:
		if v.Embedding == nil {
			return nil, Report{Shape: ShapeWrapped}, newError(KindUnsupportedShape, "normalize", "embedding field is missing")
		}
		candidate = Vector(v.Embedding).Clone()
		rep.Shape = ShapeWrapped
	default:
		return nil, rep, newError(KindUnsupportedShape, "normalize", "%T", in)
	}

	if n.cfg.Policy == PolicyLenient && rep.Shape != ShapeBase64 {
		var truncated, padded bool
		candidate, truncated, padded = reconcileLength(candidate, n.cfg.CanonicalLength)
		rep.Truncated, rep.Padded = truncated, padded

		bad, err := n.dec.checkSample(candidate, "normalize")
		rep.NonFinite = bad
		if err != nil {
			return nil, rep, err
		}
	}

	if n.cfg.Policy == PolicyLenient {
		rep.Sanitized = sanitize(candidate)
	}

	if len(candidate) != n.cfg.CanonicalLength {
		return nil, rep, newError(KindWrongLength, "normalize",
			"got %d values, want %d", len(candidate), n.cfg.CanonicalLength)
	}
	if i := candidate.firstNonFinite(); i >= 0 {
		return nil, rep, newError(KindNonFiniteValue, "normalize",
			"value %v at index %d", candidate[i], i)
	}

	return candidate, rep, nil
}

// sanitize replaces non-finite values with zero in place.
func sanitize(v Vector) int {
	n := 0
	for i, x := range v {
		if !isFinite(x) {
			v[i] = 0
			n++
		}
	}
	return n
}
