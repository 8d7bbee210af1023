// Package descriptor implements the immutable plugin-kind identity
// record described in spec.md §3/§4.2: id, name, vendor, optional
// links, version, description, and an ordered feature-tag list.
package descriptor

import "slices"

// Descriptor is immutable after Build. Use Builder to construct one.
type Descriptor struct {
	id          string
	name        string
	vendor      string
	url         string
	manualURL   string
	supportURL  string
	version     string
	description string
	features    []string
}

// ID returns the descriptor's unique identity string.
func (d *Descriptor) ID() string { return d.id }

// Name returns the human-readable plugin name.
func (d *Descriptor) Name() string { return d.name }

// Vendor returns the plugin vendor.
func (d *Descriptor) Vendor() string { return d.vendor }

// URL returns the plugin's home page, if any.
func (d *Descriptor) URL() string { return d.url }

// ManualURL returns the plugin's manual page, if any.
func (d *Descriptor) ManualURL() string { return d.manualURL }

// SupportURL returns the plugin's support page, if any.
func (d *Descriptor) SupportURL() string { return d.supportURL }

// Version returns the plugin version string.
func (d *Descriptor) Version() string { return d.version }

// Description returns the human-readable description.
func (d *Descriptor) Description() string { return d.description }

// Features returns the ordered feature tag list. The returned slice is
// owned by the caller; mutating it does not affect the descriptor.
func (d *Descriptor) Features() []string {
	return slices.Clone(d.features)
}

// Equal compares two descriptors field-by-field, including feature
// order, matching spec.md §4.2's equality contract (version, identity
// fields, and features in order).
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.id == other.id &&
		d.name == other.name &&
		d.vendor == other.vendor &&
		d.url == other.url &&
		d.manualURL == other.manualURL &&
		d.supportURL == other.supportURL &&
		d.version == other.version &&
		d.description == other.description &&
		slices.Equal(d.features, other.features)
}

// Builder constructs a Descriptor via fluent composition, the way
// statically-registered plugin kinds are typically declared.
type Builder struct {
	d Descriptor
}

// NewBuilder starts building a Descriptor with the given id, which must
// be unique within whatever Registry the resulting Descriptor is
// registered against.
func NewBuilder(id string) *Builder {
	return &Builder{d: Descriptor{id: id}}
}

// WithName sets the display name.
func (b *Builder) WithName(name string) *Builder { b.d.name = name; return b }

// WithVendor sets the vendor.
func (b *Builder) WithVendor(vendor string) *Builder { b.d.vendor = vendor; return b }

// WithURL sets the home page URL.
func (b *Builder) WithURL(url string) *Builder { b.d.url = url; return b }

// WithManualURL sets the manual page URL.
func (b *Builder) WithManualURL(url string) *Builder { b.d.manualURL = url; return b }

// WithSupportURL sets the support page URL.
func (b *Builder) WithSupportURL(url string) *Builder { b.d.supportURL = url; return b }

// WithVersion sets the version string.
func (b *Builder) WithVersion(version string) *Builder { b.d.version = version; return b }

// WithDescription sets the human-readable description.
func (b *Builder) WithDescription(desc string) *Builder { b.d.description = desc; return b }

// WithFeature appends a feature tag, preserving insertion order.
func (b *Builder) WithFeature(feature string) *Builder {
	b.d.features = append(b.d.features, feature)
	return b
}

// Build finalizes the Descriptor. The Builder must not be reused after
// Build is called.
func (b *Builder) Build() *Descriptor {
	d := b.d
	d.features = slices.Clone(b.d.features)
	return &d
}

// Option overrides a single field of a cloned Descriptor. Used by
// WithOverrides to build small families of related kinds sharing most
// identity fields (supplemented from original_source/src/descriptor.cpp's
// clone-with-overrides support for preset-bank variants of one DSP).
type Option func(*Descriptor)

// WithID overrides the id on a clone.
func WithID(id string) Option { return func(d *Descriptor) { d.id = id } }

// WithName overrides the name on a clone.
func WithName(name string) Option { return func(d *Descriptor) { d.name = name } }

// WithVersion overrides the version on a clone.
func WithVersion(version string) Option { return func(d *Descriptor) { d.version = version } }

// WithDescriptionOverride overrides the description on a clone.
func WithDescriptionOverride(desc string) Option {
	return func(d *Descriptor) { d.description = desc }
}

// WithOverrides returns a new Descriptor identical to d except for the
// fields touched by opts, leaving d unmodified.
func (d *Descriptor) WithOverrides(opts ...Option) *Descriptor {
	clone := *d
	clone.features = slices.Clone(d.features)
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}
