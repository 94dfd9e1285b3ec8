package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 音频上传相关常量
const (
	MimeAudio       = "audio/"
	MimeVideoWebm   = "video/webm" // 浏览器录音常被探测为 video/webm
	MimeOggApp      = "application/ogg"
	MimeOctetStream = "application/octet-stream"

	// 单个音频文件上限 25MB
	MaxAudioFileSize = 25 << 20
)

const (
	AudioTypeVoiceNote   = "voice_note"
	AudioTypeReadingClip = "reading_clip"
)

var (
	AllowedAudioExtensions = []string{".mp3", ".m4a", ".wav", ".aac", ".ogg", ".webm", ".flac"}
)
