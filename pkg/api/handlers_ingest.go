package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/agrosense/pkg/ingest"
)

// handleIngest accepts one record, a bare array, or {"records": [...]}, and
// reports per-record acceptance. A fully rejected batch is a 422.
func (s *Server) handleIngest(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
		return
	}

	records, err := decodeRecords(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no records in request"})
		return
	}

	resp := IngestResponse{Rejected: []RejectionDetail{}}
	for i, record := range records {
		if _, err := s.deps.Pipeline.Ingest(c.Request.Context(), record); err != nil {
			resp.Rejected = append(resp.Rejected, RejectionDetail{
				Index:  i,
				Sensor: record.Sensor,
				Reason: string(ingest.ReasonOf(err)),
				Detail: err.Error(),
			})
			continue
		}
		resp.Accepted++
	}

	status := http.StatusAccepted
	if resp.Accepted == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

// decodeRecords tolerates the three accepted body shapes.
func decodeRecords(body []byte) ([]ingest.RawRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errInvalidBody
	}

	if trimmed[0] == '[' {
		var records []ingest.RawRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errInvalidBody
		}
		return records, nil
	}

	var wrapper IngestRequest
	if err := json.Unmarshal(trimmed, &wrapper); err == nil && len(wrapper.Records) > 0 {
		return wrapper.Records, nil
	}

	var single ingest.RawRecord
	if err := json.Unmarshal(trimmed, &single); err != nil || single.Sensor == "" {
		return nil, errInvalidBody
	}
	return []ingest.RawRecord{single}, nil
}

var errInvalidBody = &invalidBodyError{}

type invalidBodyError struct{}

func (*invalidBodyError) Error() string {
	return "body must be a record, an array of records, or {\"records\": [...]}"
}
