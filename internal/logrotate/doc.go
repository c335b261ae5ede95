// Package logrotate maintains the dated log segments in the log directory.
//
// The active segment is <prefix>_log_<YYYY-MM-DD>.log for today. When it
// grows past the size limit it is renamed to <prefix>_log_<date>_part<N>.log
// and a fresh active segment starts under the original name. Part files from
// earlier days are gzip-compressed to <name>.log.gz, and any segment older
// than the retention window is deleted. Today's active segment is never
// renamed by cleanup, compressed or deleted.
package logrotate
