// rentri-registry is a standalone mock of the national Registry used for
// local development and demos. It implements just enough of the dati-registri
// and anagrafiche surfaces for the client to exercise its full push/pull
// cycle: register creation, authorization lookup, movement submission with a
// transaction id, and paged movement listing.
//
// State is in memory and lost on restart. Authentication headers are accepted
// but not verified.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultPageSize = 100

type registry struct {
	mu sync.Mutex
	// registri maps register id to its creation payload.
	registri map[string]map[string]any
	// movimenti maps register id to accepted movements in submission order.
	movimenti map[string][]map[string]any
	// autorizzazioni maps site registration code to authorization codes.
	autorizzazioni map[string][]string
}

func newRegistry() *registry {
	return &registry{
		registri:  map[string]map[string]any{},
		movimenti: map[string][]map[string]any{},
		autorizzazioni: map[string][]string{
			"IT-SITE-001": {"AUT-1", "AUT-2"},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"status": status, "detail": detail})
}

func (s *registry) createRegistro(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if site, _ := payload["num_iscr_sito"].(string); site == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "num_iscr_sito obbligatorio")
		return
	}

	id := "REG-" + strings.ToUpper(uuid.NewString()[:8])
	s.mu.Lock()
	s.registri[id] = payload
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"identificativo": id})
}

func (s *registry) listAutorizzazioni(w http.ResponseWriter, site string) {
	s.mu.Lock()
	codes := s.autorizzazioni[site]
	s.mu.Unlock()

	items := make([]map[string]string, 0, len(codes))
	for _, code := range codes {
		items = append(items, map[string]string{"codice": code})
	}
	writeJSON(w, http.StatusOK, map[string]any{"autorizzazioni": items})
}

func (s *registry) submitMovimenti(w http.ResponseWriter, r *http.Request, registroID string) {
	s.mu.Lock()
	_, known := s.registri[registroID]
	s.mu.Unlock()
	if !known {
		writeProblem(w, http.StatusNotFound, "registro non trovato")
		return
	}

	var batch []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(batch) == 0 {
		writeProblem(w, http.StatusUnprocessableEntity, "batch vuoto")
		return
	}
	for i, item := range batch {
		if _, ok := item["causale"].(string); !ok {
			writeProblem(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("movimento %d: causale obbligatoria", i))
			return
		}
	}

	s.mu.Lock()
	for _, item := range batch {
		if _, ok := item["identificativo"]; !ok {
			item["identificativo"] = "MOV-" + strings.ToUpper(uuid.NewString()[:8])
		}
		s.movimenti[registroID] = append(s.movimenti[registroID], item)
	}
	s.mu.Unlock()

	tx := uuid.NewString()
	w.Header().Set("Location", "/dati-registri/v1.0/transazioni/"+tx)
	writeJSON(w, http.StatusAccepted, map[string]string{"transazione": tx})
}

func (s *registry) listMovimenti(w http.ResponseWriter, r *http.Request, registroID string) {
	page, _ := strconv.Atoi(r.Header.Get("Paging-Page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.Header.Get("Paging-PageSize"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	s.mu.Lock()
	all := s.movimenti[registroID]
	s.mu.Unlock()

	pageCount := (len(all) + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(all))
	items := []map[string]any{}
	if start < len(all) {
		items = all[start:end]
	}

	w.Header().Set("Paging-Page", strconv.Itoa(page))
	w.Header().Set("Paging-PageCount", strconv.Itoa(pageCount))
	writeJSON(w, http.StatusOK, items)
}

func (s *registry) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /dati-registri/v1.0/registri", s.createRegistro)
	mux.HandleFunc("GET /anagrafiche/v1.0/operatori/{site}/autorizzazioni", func(w http.ResponseWriter, r *http.Request) {
		s.listAutorizzazioni(w, r.PathValue("site"))
	})
	mux.HandleFunc("POST /dati-registri/v1.0/registri/{id}/movimenti", func(w http.ResponseWriter, r *http.Request) {
		s.submitMovimenti(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /dati-registri/v1.0/registri/{id}/movimenti", func(w http.ResponseWriter, r *http.Request) {
		s.listMovimenti(w, r, r.PathValue("id"))
	})

	return mux
}

func main() {
	addr := flag.String("addr", ":9443", "listen address")
	flag.Parse()

	log.Printf("mock registry listening on %s", *addr)
	if err := http.ListenAndServe(*addr, newRegistry().handler()); err != nil {
		log.Fatal(err)
	}
}
