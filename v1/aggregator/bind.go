package aggregator

import (
	"fmt"
	"reflect"
	"strings"
)

var (
	counterType      = reflect.TypeOf((*Counter)(nil))
	gaugeType        = reflect.TypeOf((*Gauge)(nil))
	distributionType = reflect.TypeOf((*Distribution)(nil))
	timingCountType  = reflect.TypeOf((*TimingCount)(nil))
)

// Bind registers one metric per tagged field of the struct target points to
// and stores the handles in those fields. Supported field types are
// *Counter, *Gauge, *Distribution and *TimingCount.
//
//	type JobMetrics struct {
//		Completed *aggregator.Counter      `metric:"jobs.completed"`
//		Depth     *aggregator.Gauge        `metric:"queue.depth" tags:"queue:default"`
//		Latency   *aggregator.Distribution `metric:"jobs.latency"`
//		Runtime   *aggregator.TimingCount  `metric:"jobs.runtime" unit:"ms"`
//	}
//
//	var m JobMetrics
//	err := aggregator.Bind(registry, &m)
//
// Untagged fields are left alone. All definitions are validated before any
// field is written.
func Bind(r *Registry, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to a struct, got %T", ErrInvalidBinding, target)
	}
	v = v.Elem()
	t := v.Type()

	var (
		defs   []Definition
		fields []int
	)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := f.Tag.Lookup("metric")
		if !ok {
			continue
		}
		if !f.IsExported() {
			return fmt.Errorf("%w: field %s is unexported", ErrInvalidBinding, f.Name)
		}
		kind, err := kindOfField(f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		unit, err := ParseUnit(f.Tag.Get("unit"))
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}

		defs = append(defs, Definition{
			Name: name,
			Kind: kind,
			Tags: ParseTags(strings.Split(f.Tag.Get("tags"), ",")...),
			Unit: unit,
		})
		fields = append(fields, i)
	}

	schema, err := NewSchema(defs...)
	if err != nil {
		return err
	}
	handles, err := schema.Register(r)
	if err != nil {
		return err
	}
	for i, h := range handles {
		v.Field(fields[i]).Set(reflect.ValueOf(h))
	}
	return nil
}

// MustBind is like Bind but panics on error. Use it at startup.
func MustBind(r *Registry, target any) {
	if err := Bind(r, target); err != nil {
		panic(err)
	}
}

func kindOfField(t reflect.Type) (Kind, error) {
	switch t {
	case counterType:
		return KindCounter, nil
	case gaugeType:
		return KindGauge, nil
	case distributionType:
		return KindDistribution, nil
	case timingCountType:
		return KindTimingCount, nil
	default:
		return 0, fmt.Errorf("%w: unsupported field type %s", ErrInvalidBinding, t)
	}
}
