// dao/schema.go
package dao

// Neo4j node labels and relationship types.
const (
	LabelPolicy     = "POLICY"
	LabelRole       = "ROLE"
	LabelPermission = "PERMISSION"
	LabelUser       = "USER"

	RelHasRole       = "HAS_ROLE"
	RelHasPermission = "HAS_PERMISSION"
	RelParentRole    = "PARENT_ROLE"
)
