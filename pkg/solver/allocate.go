package solver

import (
	"math"
	"sort"

	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// Allocate fills a vehicle of the given capacity with the most valuable mix
// of items, splitting at most one item (fractional knapsack).
//
// Items are taken in descending demand/weight order; weightless items rank
// as ratio 0 but are always loaded whole while capacity remains. Ties keep
// the request order.
func Allocate(req model.KnapsackRequest) (model.KnapsackResponse, error) {
	defer metrics.Timer(metrics.Allocation)()

	for _, it := range req.Items {
		if it.Weight < 0 || it.Demand < 0 || math.IsNaN(it.Weight) || math.IsNaN(it.Demand) {
			metrics.Allocation.RecordError()
			return model.KnapsackResponse{}, invalidf("Item %q needs a non-negative weight and demand.", it.Name)
		}
	}

	items := make([]model.Item, len(req.Items))
	copy(items, req.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return ratio(items[i]) > ratio(items[j])
	})

	resp := model.KnapsackResponse{
		Capacity:   req.Capacity,
		Allocation: make([]model.AllocationRow, 0, len(items)),
	}
	remaining := req.Capacity
	for _, it := range items {
		if remaining <= 0 {
			break
		}
		if it.Weight <= remaining {
			resp.TotalValue += it.Demand
			remaining -= it.Weight
			resp.Allocation = append(resp.Allocation, model.AllocationRow{
				Name:        it.Name,
				WeightTaken: it.Weight,
				ValueTaken:  it.Demand,
				Fraction:    1,
			})
			continue
		}

		frac := remaining / it.Weight
		value := it.Demand * frac
		resp.TotalValue += value
		resp.Allocation = append(resp.Allocation, model.AllocationRow{
			Name:        it.Name,
			WeightTaken: remaining,
			ValueTaken:  value,
			Fraction:    frac,
		})
		remaining = 0
	}
	return resp, nil
}

func ratio(it model.Item) float64 {
	if it.Weight == 0 {
		return 0
	}
	return it.Demand / it.Weight
}
