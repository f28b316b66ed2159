package fuelfinder

// Merge reconciles freshly fetched station and price batches against a
// prior snapshot, producing a new station map keyed by node_id.
//
// Full mode rebuilds the station set from the fetched batch alone, taking
// prices from the price batch where available and falling back to prices
// embedded in the station payload. Incremental mode starts from the prior
// snapshot's map, shallow-merges each fetched station over its existing
// record, then applies price updates independently: a station's price list
// is only replaced when the price batch carries its id.
//
// Records carried over from the prior snapshot are cloned before being
// modified, so holders of a published snapshot never observe the merge.
func Merge(prev *Snapshot, stations []StationRecord, prices []PriceRecord, incremental bool) map[string]*StationRecord {
	priceLookup := make(map[string]PriceRecord, len(prices))
	for _, p := range prices {
		if id := p.NodeID(); id != "" {
			// Latest batch element wins for a given id.
			priceLookup[id] = p
		}
	}

	if !incremental || prev == nil {
		return mergeFull(stations, priceLookup)
	}
	return mergeIncremental(prev, stations, priceLookup)
}

func mergeFull(stations []StationRecord, priceLookup map[string]PriceRecord) map[string]*StationRecord {
	merged := make(map[string]*StationRecord, len(stations))
	for i := range stations {
		station := stations[i]
		if p, ok := priceLookup[station.NodeID]; ok {
			if entries := p.Entries(); entries != nil {
				station.FuelPrices = entries
			}
		}
		if station.FuelPrices == nil {
			station.FuelPrices = []FuelPriceEntry{}
		}
		merged[station.NodeID] = &station
	}
	return merged
}

func mergeIncremental(prev *Snapshot, stations []StationRecord, priceLookup map[string]PriceRecord) map[string]*StationRecord {
	merged := make(map[string]*StationRecord, len(prev.Stations)+len(stations))
	for id, station := range prev.Stations {
		merged[id] = station
	}

	for i := range stations {
		update := stations[i]
		if existing, ok := merged[update.NodeID]; ok {
			merged[update.NodeID] = mergeStation(existing, &update)
		} else {
			merged[update.NodeID] = &update
		}
	}

	for id, station := range merged {
		p, ok := priceLookup[id]
		if !ok {
			continue
		}
		entries := p.Entries()
		if entries == nil {
			continue
		}
		clone := *station
		clone.FuelPrices = entries
		merged[id] = &clone
	}

	return merged
}

// mergeStation shallow-merges an update over an existing record: fields
// present in the update win, fields it omits are preserved.
func mergeStation(existing, update *StationRecord) *StationRecord {
	merged := *existing
	merged.NodeID = update.NodeID

	if update.TradingName != nil {
		merged.TradingName = update.TradingName
	}
	if update.BrandName != nil {
		merged.BrandName = update.BrandName
	}
	if update.OrganisationName != nil {
		merged.OrganisationName = update.OrganisationName
	}
	if update.TemporaryClosure != nil {
		merged.TemporaryClosure = update.TemporaryClosure
	}
	if update.PermanentClosure != nil {
		merged.PermanentClosure = update.PermanentClosure
	}
	if update.Location != nil {
		merged.Location = update.Location
	}
	if update.FuelPrices != nil {
		merged.FuelPrices = update.FuelPrices
	}

	return &merged
}
