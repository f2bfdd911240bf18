package forms

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// AllocationForm is the item table plus the vehicle capacity.
type AllocationForm struct {
	Items    []model.Item
	Capacity string
}

// NewAllocationForm starts with the default relief items.
func NewAllocationForm() *AllocationForm {
	return &AllocationForm{Items: model.DefaultItems()}
}

// ParseAllocationForm reads rows item-name-i / item-weight-i / item-value-i
// for i < items, reading at most MaxItems rows. Rows that do not parse are
// dropped, as are rows listed in "remove".
func ParseAllocationForm(values url.Values) *AllocationForm {
	f := &AllocationForm{Capacity: strings.TrimSpace(values.Get("capacity"))}
	n, _ := strconv.Atoi(values.Get("items"))
	n = min(n, MaxItems)
	removed := make(map[string]bool)
	for _, r := range values["remove"] {
		removed[r] = true
	}
	for i := 0; i < n; i++ {
		if removed[strconv.Itoa(i)] {
			continue
		}
		name := strings.TrimSpace(values.Get(fmt.Sprintf("item-name-%d", i)))
		weight, errW := parseNumber(values.Get(fmt.Sprintf("item-weight-%d", i)))
		value, errV := parseNumber(values.Get(fmt.Sprintf("item-value-%d", i)))
		if name == "" || errW != nil || errV != nil {
			continue
		}
		f.Items = append(f.Items, model.Item{Name: name, Weight: weight, Demand: value})
	}
	return f
}

// AddItem appends a row after checking it. Weight must be positive and
// value non-negative.
func (f *AllocationForm) AddItem(name, weight, value string) error {
	if len(f.Items) >= MaxItems {
		return invalid("item-name", "At most %d items.", MaxItems)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("item-name", "Item name is empty.")
	}
	w, err := parseNumber(weight)
	if err != nil || w <= 0 {
		return invalid("item-weight", "Weight must be a positive number.")
	}
	v, err := parseNumber(value)
	if err != nil || v < 0 {
		return invalid("item-value", "Value must be zero or more.")
	}
	f.Items = append(f.Items, model.Item{Name: name, Weight: w, Demand: v})
	return nil
}

// Remove drops row i. Out of range is a no-op.
func (f *AllocationForm) Remove(i int) {
	if i < 0 || i >= len(f.Items) {
		return
	}
	f.Items = append(f.Items[:i], f.Items[i+1:]...)
}

// CapacityValue parses the capacity, which must be a positive number.
func (f *AllocationForm) CapacityValue() (float64, error) {
	c, err := parseNumber(f.Capacity)
	if err != nil || c <= 0 {
		return 0, invalid("capacity", "Enter a valid capacity.")
	}
	return c, nil
}

// Request builds the knapsack request.
func (f *AllocationForm) Request() (model.KnapsackRequest, error) {
	capacity, err := f.CapacityValue()
	if err != nil {
		return model.KnapsackRequest{}, err
	}
	items := make([]model.Item, len(f.Items))
	copy(items, f.Items)
	return model.KnapsackRequest{Items: items, Capacity: capacity}, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
