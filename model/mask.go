package model

// MaskResult 掩码生成结果
type MaskResult struct {
	MD5             string   `json:"md5"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Strategy        string   `json:"strategy"`
	Status          string   `json:"status"` // alpha, thresholded, accepted, refined, degraded
	Threshold       int      `json:"threshold"`
	ForegroundRatio float64  `json:"foreground_ratio"`
	BoundingBox     BBox     `json:"bounding_box"`
	Mask            string   `json:"mask"` // base64编码的PNG
	Trace           []string `json:"trace,omitempty"`
	Degradation     string   `json:"degradation,omitempty"`
	Timestamp       int64    `json:"timestamp"`
}

// BBox 边界框
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UploadResponse 上传响应
type UploadResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *MaskResult `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
