// Package fetch groups the fetchers that read source bytes: local files
// and directories, web pages, S3 objects and GitHub repositories. Fetchers
// only read; the loader chain decides how the bytes are extracted.
package fetch
