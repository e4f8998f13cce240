package domain

// Document is a schemaless record stored under a named collection.
type Document struct {
	Collection string                 `dynamodbav:"collection"`
	ID         string                 `dynamodbav:"id"`
	Data       map[string]interface{} `dynamodbav:"data"`
}

// Fields flattens the document into the JSON shape clients see: its data plus "id".
func (d *Document) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Data)+1)
	for k, v := range d.Data {
		out[k] = v
	}
	out["id"] = d.ID
	return out
}
