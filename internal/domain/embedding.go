package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// CentroidPoint — центроид группы в векторном индексе
type CentroidPoint struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewCentroidPoint(id string, vector []float64, payload Payload) *CentroidPoint {
	v := make([]float32, len(vector))
	for i, x := range vector {
		v[i] = float32(x)
	}

	return &CentroidPoint{
		ID:      id,
		Vector:  v,
		Payload: payload,
	}
}

func NewPayload(jobID string, group string) Payload {
	return Payload{
		"job_id":     jobID,
		"group":      group,
		"created_at": time.Now().UTC().UnixNano(),
	}
}
