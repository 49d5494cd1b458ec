package models

// FileTask is one unit of scan work. It is produced by the directory walker
// and consumed by exactly one worker.
type FileTask struct {
	AbsolutePath string
	Size         int64
}

// FileHash carries both digests of a file's content. It is computed once per
// task, before any cache or definition lookup.
type FileHash struct {
	MD5    string
	SHA256 string
}
