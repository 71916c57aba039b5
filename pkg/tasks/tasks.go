// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DocumentParseTask 描述一次简历文本提取任务，上传成功后发送。
type DocumentParseTask struct {
	ResumeID    string `json:"resume_id"`
	UserID      string `json:"user_id"`
	StorageKey  string `json:"storage_key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}
