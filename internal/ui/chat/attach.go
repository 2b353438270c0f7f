// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/polychat/polychat/internal/model"
)

// =============================================================================
// FILE ATTACHMENTS
// =============================================================================

// maxAttachmentSize caps attached files; provider inline-data payloads
// reject anything larger well before this.
const maxAttachmentSize = 10 << 20

// loadAttachment reads a file from disk into the base64 inline form the
// adapters send. The MIME type comes from the extension, falling back to
// content sniffing.
func loadAttachment(path string) (*model.AttachedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attach %s: is a directory", path)
	}
	if info.Size() > maxAttachmentSize {
		return nil, fmt.Errorf("attach %s: file exceeds %d bytes", path, maxAttachmentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &model.AttachedFile{
		Name: filepath.Base(path),
		MIME: mimeType,
		Data: base64.StdEncoding.EncodeToString(data),
	}, nil
}
