package module

import "courseboard/internal/services/catalog/domain"

// Reader is the catalog read port exposed to other modules
type Reader = domain.ReaderPort

// Publisher is the snapshot publish port exposed to the ingest pipeline
type Publisher = domain.PublisherPort
