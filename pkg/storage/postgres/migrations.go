package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the catalog and resource tables, applied in
// dependency order. Statuses: 'A' active, 'B' soft-deleted.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS distritos (
		id SERIAL PRIMARY KEY,
		clave VARCHAR(16) NOT NULL UNIQUE,
		nombre VARCHAR(256) NOT NULL,
		nombre_corto VARCHAR(64) NOT NULL DEFAULT '',
		es_distrito_judicial BOOLEAN NOT NULL DEFAULT FALSE,
		es_distrito BOOLEAN NOT NULL DEFAULT FALSE,
		es_jurisdiccional BOOLEAN NOT NULL DEFAULT FALSE,
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS materias (
		id SERIAL PRIMARY KEY,
		clave VARCHAR(16) NOT NULL UNIQUE,
		nombre VARCHAR(64) NOT NULL,
		descripcion VARCHAR(1024) NOT NULL DEFAULT '',
		en_sentencias BOOLEAN NOT NULL DEFAULT FALSE,
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS autoridades (
		id SERIAL PRIMARY KEY,
		distrito_id INTEGER NOT NULL REFERENCES distritos(id),
		materia_id INTEGER NOT NULL REFERENCES materias(id),
		clave VARCHAR(16) NOT NULL UNIQUE,
		descripcion VARCHAR(256) NOT NULL,
		descripcion_corta VARCHAR(64) NOT NULL DEFAULT '',
		es_jurisdiccional BOOLEAN NOT NULL DEFAULT FALSE,
		es_notaria BOOLEAN NOT NULL DEFAULT FALSE,
		organo_jurisdiccional VARCHAR(64) NOT NULL DEFAULT 'NO DEFINIDO',
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS materias_tipos_juicios (
		id SERIAL PRIMARY KEY,
		materia_id INTEGER NOT NULL REFERENCES materias(id),
		descripcion VARCHAR(256) NOT NULL,
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS sentencias (
		id SERIAL PRIMARY KEY,
		autoridad_id INTEGER NOT NULL REFERENCES autoridades(id),
		materia_tipo_juicio_id INTEGER NOT NULL REFERENCES materias_tipos_juicios(id),
		sentencia VARCHAR(16) NOT NULL,
		sentencia_fecha DATE,
		expediente VARCHAR(16) NOT NULL,
		expediente_anio INTEGER NOT NULL DEFAULT 0,
		expediente_num INTEGER NOT NULL DEFAULT 0,
		fecha DATE NOT NULL,
		descripcion VARCHAR(1024) NOT NULL DEFAULT '',
		es_perspectiva_genero BOOLEAN NOT NULL DEFAULT FALSE,
		archivo VARCHAR(256) NOT NULL DEFAULT '',
		url VARCHAR(512) NOT NULL DEFAULT '',
		rag_analisis TEXT,
		rag_sintesis TEXT,
		rag_categorias TEXT,
		rag_fue_analizado_tiempo TIMESTAMP WITH TIME ZONE,
		rag_fue_sintetizado_tiempo TIMESTAMP WITH TIME ZONE,
		rag_fue_categorizado_tiempo TIMESTAMP WITH TIME ZONE,
		creado TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS edictos (
		id SERIAL PRIMARY KEY,
		autoridad_id INTEGER NOT NULL REFERENCES autoridades(id),
		fecha DATE NOT NULL,
		descripcion VARCHAR(256) NOT NULL,
		expediente VARCHAR(16) NOT NULL DEFAULT '',
		numero_publicacion VARCHAR(16) NOT NULL DEFAULT '',
		archivo VARCHAR(256) NOT NULL DEFAULT '',
		url VARCHAR(512) NOT NULL DEFAULT '',
		rag_analisis TEXT,
		rag_sintesis TEXT,
		rag_categorias TEXT,
		rag_fue_analizado_tiempo TIMESTAMP WITH TIME ZONE,
		rag_fue_sintetizado_tiempo TIMESTAMP WITH TIME ZONE,
		rag_fue_categorizado_tiempo TIMESTAMP WITH TIME ZONE,
		creado TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS listas_de_acuerdos (
		id SERIAL PRIMARY KEY,
		autoridad_id INTEGER NOT NULL REFERENCES autoridades(id),
		fecha DATE NOT NULL,
		descripcion VARCHAR(256) NOT NULL DEFAULT 'LISTA DE ACUERDOS',
		archivo VARCHAR(256) NOT NULL DEFAULT '',
		url VARCHAR(512) NOT NULL DEFAULT '',
		creado TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS usuarios (
		id SERIAL PRIMARY KEY,
		autoridad_id INTEGER NOT NULL REFERENCES autoridades(id),
		email VARCHAR(256) NOT NULL UNIQUE,
		nombres VARCHAR(256) NOT NULL,
		apellido_paterno VARCHAR(256) NOT NULL,
		apellido_materno VARCHAR(256) NOT NULL DEFAULT '',
		puesto VARCHAR(256) NOT NULL DEFAULT '',
		contrasena VARCHAR(256) NOT NULL DEFAULT '',
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id SERIAL PRIMARY KEY,
		nombre VARCHAR(256) NOT NULL UNIQUE,
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS modulos (
		id SERIAL PRIMARY KEY,
		nombre VARCHAR(256) NOT NULL UNIQUE,
		estatus CHAR(1) NOT NULL DEFAULT 'A'
	)`,
	`CREATE TABLE IF NOT EXISTS permisos (
		id SERIAL PRIMARY KEY,
		rol_id INTEGER NOT NULL REFERENCES roles(id),
		modulo_id INTEGER NOT NULL REFERENCES modulos(id),
		nivel INTEGER NOT NULL DEFAULT 0,
		estatus CHAR(1) NOT NULL DEFAULT 'A',
		UNIQUE (rol_id, modulo_id)
	)`,
	`CREATE TABLE IF NOT EXISTS usuarios_roles (
		id SERIAL PRIMARY KEY,
		usuario_id INTEGER NOT NULL REFERENCES usuarios(id),
		rol_id INTEGER NOT NULL REFERENCES roles(id),
		descripcion VARCHAR(256) NOT NULL DEFAULT '',
		estatus CHAR(1) NOT NULL DEFAULT 'A',
		UNIQUE (usuario_id, rol_id)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_autoridades_distrito ON autoridades (distrito_id)`,
	`CREATE INDEX IF NOT EXISTS ix_sentencias_autoridad ON sentencias (autoridad_id)`,
	`CREATE INDEX IF NOT EXISTS ix_sentencias_creado ON sentencias (creado)`,
	`CREATE INDEX IF NOT EXISTS ix_edictos_autoridad ON edictos (autoridad_id)`,
	`CREATE INDEX IF NOT EXISTS ix_listas_de_acuerdos_fecha ON listas_de_acuerdos (autoridad_id, fecha)`,
}

// Migrate applies the schema to the given database
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i, err)
		}
	}
	return nil
}
