package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/distill"
)

// maxJSONBody caps request bodies of the JSON endpoints.
const maxJSONBody = 64 << 10

// multipartOverhead is the allowance for multipart framing and non-file
// fields on top of the file itself.
const multipartOverhead = 1 << 20

type extractRequest struct {
	URL string `json:"url"`
}

func (s *Server) decodeExtractRequest(w http.ResponseWriter, r *http.Request) (*extractRequest, error) {
	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, distill.Errorf(distill.ETOOLARGE, "request body too large")
		}
		return nil, distill.Errorf(distill.EINVALID, "invalid JSON body")
	}
	return &req, nil
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.URLExtractor == nil {
		s.Error(w, r, distill.Errorf(distill.ENOTCONFIGURED, "url extraction is not configured"))
		return
	}

	req, err := s.decodeExtractRequest(w, r)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	res, err := s.URLExtractor.Extract(r.Context(), req.URL)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExtractFile(w http.ResponseWriter, r *http.Request) {
	if s.FileExtractor == nil {
		s.Error(w, r, distill.Errorf(distill.ENOTCONFIGURED, "file extraction is not configured"))
		return
	}

	if r.ContentLength > distill.MaxFileSize+multipartOverhead {
		s.Error(w, r, tooLarge())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, distill.MaxFileSize+multipartOverhead)

	f, err := readUpload(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	res, err := s.FileExtractor.Extract(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err, errorOptions{providerStatus: http.StatusInternalServerError})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readUpload streams the multipart body and returns its "file" part.
// Reading stops as soon as the part exceeds distill.MaxFileSize.
func readUpload(r *http.Request) (*distill.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, distill.Errorf(distill.EINVALID, "multipart/form-data body with a file field required")
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, distill.Errorf(distill.EINVALID, "file required")
		} else if err != nil {
			return nil, uploadError(err)
		}

		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, distill.MaxFileSize+1))
		part.Close()
		if err != nil {
			return nil, uploadError(err)
		}
		if len(data) > distill.MaxFileSize {
			return nil, tooLarge()
		}

		return &distill.File{
			Name:     part.FileName(),
			MIMEType: part.Header.Get("Content-Type"),
			Size:     int64(len(data)),
			Data:     data,
		}, nil
	}
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return tooLarge()
	}
	return distill.Errorf(distill.EINVALID, "malformed multipart body")
}

func tooLarge() error {
	return distill.Errorf(distill.ETOOLARGE, "file exceeds the %d MiB limit", distill.MaxFileSize>>20)
}

func (s *Server) handleExtractPremium(w http.ResponseWriter, r *http.Request) {
	opts := errorOptions{providerStatus: http.StatusBadGateway}

	if s.PremiumExtractor == nil {
		s.writeError(w, r, distill.Errorf(distill.ENOTCONFIGURED, "premium extraction is not configured"), opts)
		return
	}

	token := bearerToken(r)
	req, err := s.decodeExtractRequest(w, r)
	if err != nil {
		// Credentials are checked before the body. With an empty URL the
		// extractor stops at validation, after authentication and
		// entitlement, without reserving quota.
		if _, gateErr := s.PremiumExtractor.Extract(r.Context(), token, ""); gateErr != nil && distill.ErrorCode(gateErr) != distill.EINVALID {
			s.writeError(w, r, gateErr, opts)
			return
		}
		s.writeError(w, r, err, opts)
		return
	}

	res, err := s.PremiumExtractor.Extract(r.Context(), token, req.URL)
	if err != nil {
		s.writeError(w, r, err, opts)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// bearerToken returns the credential of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			s.logger().Error("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
