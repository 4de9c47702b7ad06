package faceindex

type searchRequest struct {
	Collection string  `json:"collection"`
	Threshold  float64 `json:"threshold"`
	MaxFaces   int     `json:"maxFaces"`
}

type faceMatch struct {
	FaceID     string  `json:"faceId"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Matches []faceMatch `json:"matches"`
}

type compareRequest struct {
	Collection   string `json:"collection"`
	SourceFaceID string `json:"sourceFaceId"`
	TargetFaceID string `json:"targetFaceId"`
}

type compareResponse struct {
	Similarity float64 `json:"similarity"`
}

type indexRequest struct {
	Collection      string `json:"collection"`
	ExternalImageID string `json:"externalImageId"`
	// Image is base64 encoded by encoding/json
	Image []byte `json:"image"`
}

type indexResponse struct {
	FaceID string `json:"faceId"`
}

type failure struct {
	Reason string `json:"reason"`
}
