package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/trackauction/core/metrics"
	"github.com/kilianp07/trackauction/infra/logger"
)

// InfluxSink writes auction events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordResolution writes one auction_resolution point.
func (s *InfluxSink) RecordResolution(r coremetrics.Resolution) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("auction_resolution").
		AddTag("auction_id", r.AuctionID).
		AddTag("strategy", r.Strategy).
		AddTag("exact", strconv.FormatBool(r.Exact)).
		AddTag("failed", strconv.FormatBool(r.Failed)).
		AddField("bids", r.Bids).
		AddField("accepted", r.Accepted).
		AddField("rejected", r.Rejected).
		AddField("total", r.Total).
		AddField("upper_bound", round3(r.UpperBound)).
		AddField("nodes", r.Nodes).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBidRejection writes one bid_rejected point.
func (s *InfluxSink) RecordBidRejection(r coremetrics.BidRejection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("bid_rejected").
		AddTag("auction_id", r.AuctionID).
		AddTag("company", r.Company).
		AddTag("reason", r.Reason).
		AddField("amount", r.Amount).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAward writes one award_notified point.
func (s *InfluxSink) RecordAward(a coremetrics.Award) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("award_notified").
		AddTag("auction_id", a.AuctionID).
		AddTag("company", a.Company).
		AddTag("delivered", strconv.FormatBool(a.Delivered)).
		AddField("cells", a.Cells).
		AddField("amount", a.Amount)
	if a.Error != "" {
		p = p.AddField("error", a.Error)
	}
	p = p.SetTime(a.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
