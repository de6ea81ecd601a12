package handler

import "strconv"

// multipartOverhead leaves room for boundaries and part headers on top of the
// file size limit when capping the request body.
const multipartOverhead = 1 << 20

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
