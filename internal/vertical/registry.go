// Package vertical is the closed registry of listing verticals. Each vertical contributes one
// typed extension shape, its validation rules, its canonical projection and its pricing model.
// There is deliberately no generic attribute bag: unknown verticals and unknown fields are rejected.
package vertical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/go-playground/validator/v10"
)

type PricingModel string

const (
	// PricingFlat requires a flat price.
	PricingFlat PricingModel = "flat"
	// PricingNegotiable allows the price to be omitted.
	PricingNegotiable PricingModel = "negotiable"
	// PricingPremium accepts a flat price or a premium percentage on the extension.
	PricingPremium PricingModel = "premium"
)

// Spec describes one vertical: its storage table, its pricing model and its rules.
type Spec struct {
	Vertical model.Vertical
	Table    string
	Pricing  PricingModel
	Columns  []string
	Required []string

	newFn   func() model.Extension
	check   func(model.Extension) *apperror.ValidationError
	project func(model.Extension)
}

// New returns an empty extension record of the vertical's concrete type.
func (s *Spec) New() model.Extension {
	return s.newFn()
}

type Registry struct {
	specs    map[model.Vertical]*Spec
	validate *validator.Validate
}

func New() *Registry {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	r := &Registry{
		specs:    make(map[model.Vertical]*Spec, len(definitions)),
		validate: v,
	}
	for _, def := range definitions {
		spec := def
		t := reflect.TypeOf(spec.newFn()).Elem()
		spec.Columns = dbColumns(t)
		spec.Required = requiredFields(t)
		r.specs[spec.Vertical] = &spec
	}
	return r
}

// Lookup returns the spec for v or a ValidationError on the vertical field.
func (r *Registry) Lookup(v model.Vertical) (*Spec, error) {
	spec, ok := r.specs[v]
	if !ok {
		return nil, apperror.Validation("vertical", fmt.Sprintf("unknown vertical %q", v))
	}
	return spec, nil
}

// All returns every registered vertical ordered by tag.
func (r *Registry) All() []*Spec {
	out := make([]*Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vertical < out[j].Vertical })
	return out
}

// Decode strictly decodes raw JSON into the vertical's extension type. Unknown fields fail.
func (r *Registry) Decode(v model.Vertical, raw json.RawMessage) (model.Extension, error) {
	spec, err := r.Lookup(v)
	if err != nil {
		return nil, err
	}
	ext := spec.New()
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return ext, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ext); err != nil {
		return nil, apperror.Validation("extension", err.Error())
	}
	return ext, nil
}

// Validate checks ext against its vertical's field rules. It returns every failure in field
// order; an empty result means the record is valid.
func (r *Registry) Validate(ext model.Extension) []*apperror.ValidationError {
	if ext == nil || reflect.ValueOf(ext).IsNil() {
		return []*apperror.ValidationError{apperror.Validation("extension", "is required")}
	}
	spec, err := r.Lookup(ext.Vertical())
	if err != nil {
		var ve *apperror.ValidationError
		errors.As(err, &ve)
		return []*apperror.ValidationError{ve}
	}

	var out []*apperror.ValidationError
	if err := r.validate.Struct(ext); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []*apperror.ValidationError{apperror.Validation("extension", err.Error())}
		}
		for _, fe := range fieldErrs {
			out = append(out, apperror.Validation(fe.Field(), describe(fe)))
		}
	}
	if len(out) == 0 && spec.check != nil {
		if ve := spec.check(ext); ve != nil {
			out = append(out, ve)
		}
	}
	return out
}

// Project rewrites ext into its canonical form in place: trimmed text, lower-cased enums,
// de-duplicated sorted sets and vertical defaults.
func (r *Registry) Project(ext model.Extension) model.Extension {
	canonicalize(reflect.ValueOf(ext).Elem())
	if spec, ok := r.specs[ext.Vertical()]; ok && spec.project != nil {
		spec.project(ext)
	}
	return ext
}

// Prepare projects ext and validates the canonical record, so what gets stored is exactly what
// was validated. The vertical of ext must match v.
func (r *Registry) Prepare(v model.Vertical, ext model.Extension) (model.Extension, error) {
	if _, err := r.Lookup(v); err != nil {
		return nil, err
	}
	if ext == nil || reflect.ValueOf(ext).IsNil() {
		return nil, apperror.Validation("extension", "is required")
	}
	if ext.Vertical() != v {
		return nil, apperror.Validation("extension", fmt.Sprintf("%s extension cannot attach to a %s listing", ext.Vertical(), v))
	}
	r.Project(ext)
	if errs := r.Validate(ext); len(errs) > 0 {
		return nil, errs[0]
	}
	return ext, nil
}

// CheckPricing enforces the vertical's pricing model for a listing with or without a flat price.
func (r *Registry) CheckPricing(v model.Vertical, hasPrice bool, ext model.Extension) error {
	spec, err := r.Lookup(v)
	if err != nil {
		return err
	}
	switch spec.Pricing {
	case PricingFlat:
		if !hasPrice {
			return apperror.Validation("price", fmt.Sprintf("is required for %s listings", v))
		}
	case PricingPremium:
		ins, _ := ext.(*model.InsuranceExtension)
		if !hasPrice && (ins == nil || ins.PremiumPercentage == nil) {
			return apperror.Validation("price", "is required unless premium_percentage is set")
		}
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag() + " rule"
}

// dbColumns lists the db-tagged columns of an extension struct, excluding the shared base.
func dbColumns(t reflect.Type) []string {
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			continue
		}
		if col := f.Tag.Get("db"); col != "" && col != "-" {
			cols = append(cols, col)
		}
	}
	return cols
}

func requiredFields(t reflect.Type) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		rules := f.Tag.Get("validate")
		if strings.HasPrefix(rules, "required") || strings.HasPrefix(rules, "gt=") {
			out = append(out, jsonFieldName(f))
		}
	}
	return out
}

func canonicalize(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			continue
		}
		fv := v.Field(i)
		enum := strings.Contains(f.Tag.Get("validate"), "oneof")
		switch fv.Kind() {
		case reflect.String:
			s := strings.TrimSpace(fv.String())
			if enum {
				s = strings.ToLower(s)
			}
			fv.SetString(s)
		case reflect.Slice:
			if fv.Type().Elem().Kind() != reflect.String {
				continue
			}
			fv.Set(reflect.ValueOf(normalizeSet(fv, enum)).Convert(fv.Type()))
		case reflect.Ptr:
			// dates compare by instant, whichever zone they were decoded in
			if ts, ok := fv.Interface().(*time.Time); ok && ts != nil {
				utc := ts.UTC()
				fv.Set(reflect.ValueOf(&utc))
			}
		}
	}
}

func normalizeSet(fv reflect.Value, lower bool) []string {
	seen := make(map[string]struct{}, fv.Len())
	out := make([]string, 0, fv.Len())
	for i := 0; i < fv.Len(); i++ {
		s := strings.TrimSpace(fv.Index(i).String())
		if lower {
			s = strings.ToLower(s)
		}
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
