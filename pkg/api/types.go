package api

// Output shapes for the API resources. Dates serialize as YYYY-MM-DD,
// timestamps as RFC 3339.

// DistritoOut is a judicial district
type DistritoOut struct {
	ID                 int64  `json:"id"`
	Clave              string `json:"clave"`
	Nombre             string `json:"nombre"`
	NombreCorto        string `json:"nombre_corto"`
	EsDistritoJudicial bool   `json:"es_distrito_judicial"`
	EsDistrito         bool   `json:"es_distrito"`
	EsJurisdiccional   bool   `json:"es_jurisdiccional"`
}

// AutoridadOut is a court or notary office
type AutoridadOut struct {
	ID                   int64  `json:"id"`
	Clave                string `json:"clave"`
	Descripcion          string `json:"descripcion"`
	DescripcionCorta     string `json:"descripcion_corta"`
	DistritoClave        string `json:"distrito_clave"`
	DistritoNombreCorto  string `json:"distrito_nombre_corto"`
	MateriaClave         string `json:"materia_clave"`
	MateriaNombre        string `json:"materia_nombre"`
	EsJurisdiccional     bool   `json:"es_jurisdiccional"`
	EsNotaria            bool   `json:"es_notaria"`
	OrganoJurisdiccional string `json:"organo_jurisdiccional"`
}

// MateriaOut is a subject matter
type MateriaOut struct {
	ID           int64  `json:"id"`
	Clave        string `json:"clave"`
	Nombre       string `json:"nombre"`
	Descripcion  string `json:"descripcion"`
	EnSentencias bool   `json:"en_sentencias"`
}

// MateriaTipoJuicioOut is a trial type within a subject matter
type MateriaTipoJuicioOut struct {
	ID           int64  `json:"id"`
	MateriaClave string `json:"materia_clave"`
	Descripcion  string `json:"descripcion"`
}

// SentenciaOut is a published ruling
type SentenciaOut struct {
	ID                  int64  `json:"id"`
	AutoridadClave      string `json:"autoridad_clave"`
	MateriaTipoJuicio   string `json:"materia_tipo_juicio"`
	Sentencia           string `json:"sentencia"`
	SentenciaFecha      string `json:"sentencia_fecha,omitempty"`
	Expediente          string `json:"expediente"`
	Fecha               string `json:"fecha"`
	Descripcion         string `json:"descripcion"`
	EsPerspectivaGenero bool   `json:"es_perspectiva_genero"`
	Archivo             string `json:"archivo"`
	URL                 string `json:"url"`
	Creado              string `json:"creado"`
}

// SentenciaDetalleOut adds the RAG analysis fields to a ruling
type SentenciaDetalleOut struct {
	SentenciaOut
	RAGAnalisis   *string `json:"rag_analisis"`
	RAGSintesis   *string `json:"rag_sintesis"`
	RAGCategorias *string `json:"rag_categorias"`
}

// EdictoOut is a published notice
type EdictoOut struct {
	ID                int64  `json:"id"`
	AutoridadClave    string `json:"autoridad_clave"`
	Fecha             string `json:"fecha"`
	Descripcion       string `json:"descripcion"`
	Expediente        string `json:"expediente"`
	NumeroPublicacion string `json:"numero_publicacion"`
	Archivo           string `json:"archivo"`
	URL               string `json:"url"`
	Creado            string `json:"creado"`
}

// EdictoDetalleOut adds the RAG analysis fields to a notice
type EdictoDetalleOut struct {
	EdictoOut
	RAGAnalisis   *string `json:"rag_analisis"`
	RAGSintesis   *string `json:"rag_sintesis"`
	RAGCategorias *string `json:"rag_categorias"`
}

// ListaDeAcuerdoOut is an agreement list
type ListaDeAcuerdoOut struct {
	ID             int64  `json:"id"`
	AutoridadClave string `json:"autoridad_clave"`
	Fecha          string `json:"fecha"`
	Descripcion    string `json:"descripcion"`
	Archivo        string `json:"archivo"`
	URL            string `json:"url"`
	Creado         string `json:"creado"`
}

// ModuloOut is a permission module
type ModuloOut struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// PermisoOut is a role permission on a module
type PermisoOut struct {
	ID           int64  `json:"id"`
	RolNombre    string `json:"rol"`
	ModuloNombre string `json:"modulo"`
	Nivel        int    `json:"nivel"`
}

// RolOut is a role
type RolOut struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// UsuarioOut is a user account
type UsuarioOut struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
	Puesto          string `json:"puesto"`
	AutoridadClave  string `json:"autoridad_clave"`
}

// UsuarioRolOut is a role assignment
type UsuarioRolOut struct {
	ID           int64  `json:"id"`
	UsuarioEmail string `json:"usuario_email"`
	RolNombre    string `json:"rol"`
	Descripcion  string `json:"descripcion"`
}

// TokenOut is the token endpoint response. Unlike the enveloped resource
// responses, clients of the password flow expect these fields at the top
// level.
type TokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Username    string `json:"username"`
}

// DescargarOut is a presigned document download
type DescargarOut struct {
	ID      int64  `json:"id"`
	Archivo string `json:"archivo"`
	URL     string `json:"url"`
}
