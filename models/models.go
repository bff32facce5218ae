package models

// All lists every record type for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}, &PageView{}, &UploadedFile{},
	}
}
