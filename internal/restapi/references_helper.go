package restapi

import (
	"quietride.org/internal/models"
	"quietride.org/internal/signals"
)

// buildReferences lists the configured routes a response mentions and, when given,
// which signal sources actually answered.
func (api *RestAPI) buildReferences(routeIDs []string, sigs []signals.Signal) models.ReferencesModel {
	refs := models.NewEmptyReferences()
	for _, id := range routeIDs {
		route, ok := api.Config.FindRoute(id)
		if !ok {
			continue
		}
		refs.Routes = append(refs.Routes, models.RouteReference{
			ID:             route.ID,
			Name:           route.Name,
			Direction:      route.Direction,
			StopID:         route.StopID,
			NormalCapacity: route.NormalCapacity,
			Capacity:       route.Capacity,
		})
	}
	for _, s := range sigs {
		refs.Sources = append(refs.Sources, models.SourceReference{
			Source:    string(s.Source),
			Available: s.Reported(),
		})
	}
	return refs
}
