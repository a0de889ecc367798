package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions configures the connection to a ClickHouse server.
type ClickHouseOptions struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// clickHouseWriter writes benchmark records into a ClickHouse database. It
// shares the table model of the SQLite writer, so the two backends are
// interchangeable behind the DataRecorder interface.
type clickHouseWriter struct {
	conn clickhouse.Conn

	tables     map[string]*table
	batchSize  int
	entryCount int
}

// NewClickHouseRecorder creates a DataRecorder that writes to a ClickHouse
// server. It panics if the server cannot be reached.
func NewClickHouseRecorder(opts ClickHouseOptions) DataRecorder {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      time.Second * 30,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("failed to ping ClickHouse: %w", err))
	}

	w := &clickHouseWriter{
		conn:      conn,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

func (w *clickHouseWriter) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	createSQL := createTableSQL(tableName, sampleEntry)

	err := w.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	w.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
		entries:    []any{},
	}
}

func createTableSQL(tableName string, sampleEntry any) string {
	structType := reflect.TypeOf(sampleEntry)

	columns := make([]string, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		columns = append(columns,
			field.Name+" "+clickHouseColumnType(field.Type.Kind()))
	}

	return "CREATE TABLE IF NOT EXISTS " + tableName +
		" (\n\t" + strings.Join(columns, ",\n\t") + "\n)" +
		" ENGINE = MergeTree()\nORDER BY tuple()"
}

func clickHouseColumnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Uint, reflect.Uint64:
		return "UInt64"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	default:
		panic(fmt.Sprintf("unsupported column kind %s", kind))
	}
}

func (w *clickHouseWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("entry type %T does not match table %s",
			entry, tableName))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *clickHouseWriter) ListTables() []string {
	tables := make([]string, 0, len(w.tables))
	for name := range w.tables {
		tables = append(tables, name)
	}

	return tables
}

func (w *clickHouseWriter) Flush() {
	if w.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, t := range w.tables {
		if len(t.entries) == 0 {
			continue
		}

		w.flushTable(ctx, tableName, t)
	}

	w.entryCount = 0
}

func (w *clickHouseWriter) flushTable(
	ctx context.Context,
	tableName string,
	t *table,
) {
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	for _, entry := range t.entries {
		if err := batch.Append(structs.Values(entry)...); err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	if err := batch.Send(); err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	t.entries = nil
}

func (w *clickHouseWriter) Close() error {
	w.Flush()

	if err := w.conn.Close(); err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
