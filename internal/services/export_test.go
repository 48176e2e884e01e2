package services

import "net/http"

// Accessors for external tests (package services_test).

func (s *BackendService) TestBaseURL() string { return s.baseURL }

func (s *BackendService) TestHTTPClient() *http.Client { return s.httpClient }
