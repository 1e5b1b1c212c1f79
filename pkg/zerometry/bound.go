package zerometry

// Bound is an axis-aligned bounding box in degrees.
type Bound struct {
	MinLng float64
	MaxLng float64
	MinLat float64
	MaxLat float64
}

// Transmeridian reports whether the box straddles the anti-meridian. A raw
// longitude span wider than half the globe means the underlying coordinates
// sit on both sides of ±180 and the box actually wraps.
func (b Bound) Transmeridian() bool {
	return b.MaxLng-b.MinLng > 180
}

// hemispheres splits a wrapping box into its two true boxes, one per side
// of the anti-meridian.
func (b Bound) hemispheres() [2]Bound {
	return [2]Bound{
		{MinLng: -180, MaxLng: b.MinLng, MinLat: b.MinLat, MaxLat: b.MaxLat},
		{MinLng: b.MaxLng, MaxLng: 180, MinLat: b.MinLat, MaxLat: b.MaxLat},
	}
}

func (b Bound) overlapsFlat(o Bound) bool {
	return b.MinLng <= o.MaxLng && o.MinLng <= b.MaxLng &&
		b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}

// Overlaps reports whether the two boxes share any point. Wrapping boxes
// are compared per hemisphere so the screen stays sound near ±180.
func (b Bound) Overlaps(o Bound) bool {
	switch {
	case b.Transmeridian() && o.Transmeridian():
		return b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
	case b.Transmeridian():
		for _, h := range b.hemispheres() {
			if h.overlapsFlat(o) {
				return true
			}
		}
		return false
	case o.Transmeridian():
		for _, h := range o.hemispheres() {
			if h.overlapsFlat(b) {
				return true
			}
		}
		return false
	default:
		return b.overlapsFlat(o)
	}
}

// extend grows the box to cover (lng, lat).
func (b *Bound) extend(lng, lat float64) {
	if lng < b.MinLng {
		b.MinLng = lng
	}
	if lng > b.MaxLng {
		b.MaxLng = lng
	}
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
}

// merge grows the box to cover o.
func (b *Bound) merge(o Bound) {
	b.extend(o.MinLng, o.MinLat)
	b.extend(o.MaxLng, o.MaxLat)
}
