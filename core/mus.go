package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted domain types, hand-rolled on top of
// the mus-go primitives: varint numbers, ordinary strings, and
// length-prefixed slices. Timestamps are stored as microsecond Unix values.

// IDMUS serializes IDs.
var IDMUS = idSer{}

type idSer struct{}

func (idSer) Size(id ID) int { return varint.Uint64.Size(uint64(id)) }

func (idSer) Marshal(id ID, bs []byte) int { return varint.Uint64.Marshal(uint64(id), bs) }

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

// DocumentMUS serializes Documents.
var DocumentMUS = documentSer{}

type documentSer struct{}

func (documentSer) Size(d Document) int {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.Title) +
		ord.String.Size(d.Text) +
		ord.String.Size(d.Source) +
		ord.String.Size(d.URL) +
		sizeTime(d.PublishedAt) +
		sizeTime(d.ScrapedAt)
}

func (documentSer) Marshal(d Document, bs []byte) int {
	n := IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Text, bs[n:])
	n += ord.String.Marshal(d.Source, bs[n:])
	n += ord.String.Marshal(d.URL, bs[n:])
	n += marshalTime(d.PublishedAt, bs[n:])
	n += marshalTime(d.ScrapedAt, bs[n:])
	return n
}

func (documentSer) Unmarshal(bs []byte) (d Document, n int, err error) {
	var m int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.Source, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.URL, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.PublishedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.ScrapedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	return d, n, nil
}

// AssetMUS serializes Assets.
var AssetMUS = assetSer{}

type assetSer struct{}

func (assetSer) Size(a Asset) int {
	return IDMUS.Size(a.Id) +
		ord.String.Size(a.Type) +
		ord.String.Size(a.Hostname) +
		ord.String.Size(a.OS) +
		ord.String.Size(a.OSVersion) +
		StringSliceMUS.Size(a.Software) +
		ord.String.Size(a.SecurityTools) +
		ord.String.Size(a.Location) +
		ord.String.Size(a.Department) +
		ord.String.Size(a.Owner) +
		ord.String.Size(a.Posture)
}

func (assetSer) Marshal(a Asset, bs []byte) int {
	n := IDMUS.Marshal(a.Id, bs)
	n += ord.String.Marshal(a.Type, bs[n:])
	n += ord.String.Marshal(a.Hostname, bs[n:])
	n += ord.String.Marshal(a.OS, bs[n:])
	n += ord.String.Marshal(a.OSVersion, bs[n:])
	n += StringSliceMUS.Marshal(a.Software, bs[n:])
	n += ord.String.Marshal(a.SecurityTools, bs[n:])
	n += ord.String.Marshal(a.Location, bs[n:])
	n += ord.String.Marshal(a.Department, bs[n:])
	n += ord.String.Marshal(a.Owner, bs[n:])
	n += ord.String.Marshal(a.Posture, bs[n:])
	return n
}

func (assetSer) Unmarshal(bs []byte) (a Asset, n int, err error) {
	var m int
	if a.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	fields := []*string{&a.Type, &a.Hostname, &a.OS, &a.OSVersion}
	for _, f := range fields {
		if *f, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return a, n + m, err
		}
		n += m
	}
	if a.Software, m, err = StringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	fields = []*string{&a.SecurityTools, &a.Location, &a.Department, &a.Owner, &a.Posture}
	for _, f := range fields {
		if *f, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return a, n + m, err
		}
		n += m
	}
	return a, n, nil
}

// TaxonomyLabelMUS serializes TaxonomyLabels.
var TaxonomyLabelMUS = taxonomyLabelSer{}

type taxonomyLabelSer struct{}

func (taxonomyLabelSer) Size(l TaxonomyLabel) int {
	return ord.String.Size(l.RecordRef) +
		StringSliceMUS.Size(l.Severity) +
		StringSliceMUS.Size(l.Impact) +
		StringSliceMUS.Size(l.Actor) +
		StringSliceMUS.Size(l.Platform) +
		StringSliceMUS.Size(l.MitreTactics) +
		ord.String.Size(l.OS) +
		ord.String.Size(l.Department) +
		ord.String.Size(l.City)
}

func (taxonomyLabelSer) Marshal(l TaxonomyLabel, bs []byte) int {
	n := ord.String.Marshal(l.RecordRef, bs)
	n += StringSliceMUS.Marshal(l.Severity, bs[n:])
	n += StringSliceMUS.Marshal(l.Impact, bs[n:])
	n += StringSliceMUS.Marshal(l.Actor, bs[n:])
	n += StringSliceMUS.Marshal(l.Platform, bs[n:])
	n += StringSliceMUS.Marshal(l.MitreTactics, bs[n:])
	n += ord.String.Marshal(l.OS, bs[n:])
	n += ord.String.Marshal(l.Department, bs[n:])
	n += ord.String.Marshal(l.City, bs[n:])
	return n
}

func (taxonomyLabelSer) Unmarshal(bs []byte) (l TaxonomyLabel, n int, err error) {
	var m int
	if l.RecordRef, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	slices := []*[]string{&l.Severity, &l.Impact, &l.Actor, &l.Platform, &l.MitreTactics}
	for _, s := range slices {
		if *s, m, err = StringSliceMUS.Unmarshal(bs[n:]); err != nil {
			return l, n + m, err
		}
		n += m
	}
	fields := []*string{&l.OS, &l.Department, &l.City}
	for _, f := range fields {
		if *f, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return l, n + m, err
		}
		n += m
	}
	return l, n, nil
}

// StringSliceMUS serializes string slices with a varint length prefix.
var StringSliceMUS = stringSliceSer{}

type stringSliceSer struct{}

func (stringSliceSer) Size(v []string) int {
	size := varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func (stringSliceSer) Marshal(v []string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringSliceSer) Unmarshal(bs []byte) ([]string, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrNegativeLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]string, length)
	for i := range v {
		var m int
		if v[i], m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n + m, err
		}
		n += m
	}
	return v, n, nil
}

// IDSliceMUS serializes ID slices with a varint length prefix.
var IDSliceMUS = idSliceSer{}

type idSliceSer struct{}

func (idSliceSer) Size(v []ID) int {
	size := varint.Int.Size(len(v))
	for _, id := range v {
		size += IDMUS.Size(id)
	}
	return size
}

func (idSliceSer) Marshal(v []ID, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, id := range v {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return n
}

func (idSliceSer) Unmarshal(bs []byte) ([]ID, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrNegativeLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]ID, length)
	for i := range v {
		var m int
		if v[i], m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
			return nil, n + m, err
		}
		n += m
	}
	return v, n, nil
}

// Float32SliceMUS serializes float32 slices. Values are stored as varint
// encodings of their IEEE 754 bits.
var Float32SliceMUS = float32SliceSer{}

type float32SliceSer struct{}

func (float32SliceSer) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func (float32SliceSer) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func (float32SliceSer) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrNegativeLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := range v {
		bits, m, err := varint.Uint32.Unmarshal(bs[n:])
		if err != nil {
			return nil, n + m, err
		}
		v[i] = math.Float32frombits(bits)
		n += m
	}
	return v, n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}
