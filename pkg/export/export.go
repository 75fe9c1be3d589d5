// Package export writes auction outcomes in machine readable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/trackauction/core/auction"
	"github.com/kilianp07/trackauction/core/model"
)

// CellEntry is one allocated cell.
type CellEntry struct {
	Location int    `json:"location"`
	Time     int    `json:"time"`
	Company  string `json:"company"`
}

// BidEntry is the outcome of one submitted bid.
type BidEntry struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Company  string `json:"company"`
	Amount   int64  `json:"amount"`
	Cells    int    `json:"cells"`
	Accepted bool   `json:"accepted"`
}

// Summary describes a resolution.
type Summary struct {
	AuctionID  string      `json:"auction_id,omitempty"`
	Strategy   string      `json:"strategy"`
	Exact      bool        `json:"exact"`
	Total      int64       `json:"total"`
	UpperBound float64     `json:"upper_bound"`
	Bids       []BidEntry  `json:"bids"`
	Allocation []CellEntry `json:"allocation"`
}

// Entries lists the allocation in cell order.
func Entries(a model.Allocation) []CellEntry {
	cells := a.Cells()
	out := make([]CellEntry, len(cells))
	for i, c := range cells {
		out[i] = CellEntry{Location: c.Location, Time: c.Time, Company: a[c]}
	}
	return out
}

// NewSummary builds a Summary of res for the submitted bids.
func NewSummary(auctionID, strategy string, bids []model.Bid, res *auction.Result) Summary {
	s := Summary{
		AuctionID:  auctionID,
		Strategy:   strategy,
		Exact:      res.Exact,
		Total:      res.Total,
		UpperBound: res.UpperBound,
		Bids:       make([]BidEntry, len(bids)),
		Allocation: Entries(res.Allocation),
	}
	for i, b := range bids {
		s.Bids[i] = BidEntry{
			Index:    i,
			Label:    b.Label(i),
			Company:  b.Company,
			Amount:   b.Amount,
			Cells:    len(model.Dedupe(b.Cells)),
			Accepted: res.IsAccepted(i),
		}
	}
	return s
}

// WriteJSON writes the summary to w in indented JSON format.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes the allocation to w as location,time,company rows.
func WriteCSV(w io.Writer, a model.Allocation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"location", "time", "company"}); err != nil {
		return err
	}
	for _, e := range Entries(a) {
		rec := []string{
			strconv.Itoa(e.Location),
			strconv.Itoa(e.Time),
			e.Company,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBidsCSV writes one row per submitted bid with its outcome.
func WriteBidsCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "label", "company", "amount", "cells", "accepted"}); err != nil {
		return err
	}
	for _, b := range s.Bids {
		rec := []string{
			strconv.Itoa(b.Index),
			b.Label,
			b.Company,
			strconv.FormatInt(b.Amount, 10),
			strconv.Itoa(b.Cells),
			strconv.FormatBool(b.Accepted),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
