package queue

const TypeItemReextract = "item:reextract"

// ItemReextractPayload asks the worker to OCR a stored PDF whose text layer
// was empty at upload time. FallbackTitle is the title stored at ingest;
// the worker only replaces a title that still equals it.
type ItemReextractPayload struct {
	ItemDetailID  string `json:"item_detail_id"`
	ClientID      string `json:"client_id"`
	StorageKey    string `json:"storage_key"`
	MediaType     string `json:"media_type"`
	FallbackTitle string `json:"fallback_title"`
}
