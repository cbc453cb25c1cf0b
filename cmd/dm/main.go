package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/app"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/config"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DMApp. The caller must defer
// app.Close(). operation identifies the CLI command being run.
func newApp(cmd *cobra.Command, operation string) (*app.DMApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewDMApp(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "dm",
	Short: "Data management catalog for genomic pipeline files",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var (
	initStoreType string
	initStoreHost string
	initStorePort int
	initStoreUser string
	initStoreDB   string
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.Store.Type = initStoreType
		cfg.Store.Host = initStoreHost
		cfg.Store.Port = initStorePort
		cfg.Store.Database = initStoreDB

		if initStoreUser != "" {
			cfg.Store.User = initStoreUser
			fmt.Printf("Password for store user %s: ", initStoreUser)
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			cfg.Store.Password = string(pw)
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Store: %s (%s:%d/%s)\n", cfg.Store.Type, cfg.Store.Host, cfg.Store.Port, cfg.Store.Database)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Store type:     %s\n", cfg.Store.Type)
		fmt.Printf("Store host:     %s:%d\n", cfg.Store.Host, cfg.Store.Port)
		fmt.Printf("Store database: %s\n", cfg.Store.Database)
		fmt.Printf("Retention days: %d\n", cfg.DMP.RetentionDays)
		fmt.Printf("FTP root:       %s\n", cfg.DMP.FTPRoot)
		fmt.Printf("Log dir:        %s\n", cfg.DMP.LogDir)
		return nil
	},
}

// add command

var (
	addUser       string
	addPath       string
	addPathType   string
	addFileType   string
	addSize       int64
	addParentDir  string
	addDataType   string
	addTaxon      int64
	addCompressed string
	addSources    []string
	addMeta       []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a file with the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Register")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		meta := make(map[string]any, len(addMeta))
		for _, kv := range addMeta {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --meta %q, want key=value", kv)
			}
			meta[k] = v
		}

		id, err := a.Service().Register(cmd.Context(), dmp.RegisterInput{
			UserID:     addUser,
			FilePath:   addPath,
			PathType:   model.PathType(addPathType),
			FileType:   addFileType,
			Size:       addSize,
			ParentDir:  addParentDir,
			DataType:   addDataType,
			TaxonID:    addTaxon,
			Compressed: model.Compression(addCompressed),
			SourceID:   addSources,
			MetaData:   meta,
		})
		if err != nil {
			return err
		}

		fmt.Println(id)
		return nil
	},
}

// get command

var getCmd = &cobra.Command{
	Use:   "get USER FILE_ID",
	Short: "Fetch one file record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "GetByID")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		rec, err := a.Service().GetByID(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("{}")
			return nil
		}
		return printJSON(rec)
	},
}

// files command

var (
	filesFileType string
	filesDataType string
	filesTaxon    int64
	filesAssembly string
	filesPath     string
	filesSummary  bool
	filesURLs     bool
)

var filesCmd = &cobra.Command{
	Use:   "files USER",
	Short: "List a user's file records, optionally filtered by one attribute",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Files")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		user := args[0]
		svc := a.Service()

		var recs []*model.FileRecord
		switch {
		case filesFileType != "":
			recs, err = svc.FilesBy(cmd.Context(), user, dmp.AttrFileType, filesFileType, filesSummary)
		case filesDataType != "":
			recs, err = svc.FilesBy(cmd.Context(), user, dmp.AttrDataType, filesDataType, filesSummary)
		case filesTaxon != 0:
			recs, err = svc.FilesBy(cmd.Context(), user, dmp.AttrTaxonID, filesTaxon, filesSummary)
		case filesAssembly != "":
			recs, err = svc.FilesBy(cmd.Context(), user, dmp.AttrAssembly, filesAssembly, filesSummary)
		case filesPath != "":
			recs, err = svc.FilesBy(cmd.Context(), user, dmp.AttrFilePath, filesPath, filesSummary)
		default:
			recs, err = svc.FilesByUser(cmd.Context(), user, filesSummary)
		}
		if err != nil {
			return err
		}

		if filesURLs {
			for _, r := range recs {
				fmt.Println(a.FileURL(r))
			}
			return nil
		}
		return printJSON(recs)
	},
}

// history command

var historyCmd = &cobra.Command{
	Use:   "history USER FILE_ID",
	Short: "Show the derivation lineage of a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		edges, err := a.Service().History(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		for _, e := range edges {
			fmt.Printf("%s -> %s\n", e.Child, e.Parent)
		}
		return nil
	},
}

// meta command

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Edit a record's metadata",
}

var metaAddCmd = &cobra.Command{
	Use:   "add USER FILE_ID KEY VALUE",
	Short: "Add or replace one metadata key",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "AddMetadata")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		return a.Service().AddMetadata(cmd.Context(), args[0], args[1], args[2], args[3])
	},
}

var metaRmCmd = &cobra.Command{
	Use:   "rm USER FILE_ID KEY",
	Short: "Remove one metadata key",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RemoveMetadata")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		return a.Service().RemoveMetadata(cmd.Context(), args[0], args[1], args[2])
	},
}

// set command

var setCmd = &cobra.Command{
	Use:   "set USER FILE_ID FIELD VALUE",
	Short: "Amend a single top-level field",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "AmendField")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		return a.Service().AmendField(cmd.Context(), args[0], args[1], args[2], args[3])
	},
}

// rm command

var rmCmd = &cobra.Command{
	Use:   "rm USER FILE_ID",
	Short: "Remove a file record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Remove")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		id, err := a.Service().Remove(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

// load-sample command

var loadSampleCmd = &cobra.Command{
	Use:   "load-sample",
	Short: "Load the sample dataset into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "LoadSample")
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if err := dmp.LoadSampleDataset(cmd.Context(), a.Service(), nil); err != nil {
			return err
		}
		fmt.Println("Sample dataset loaded")
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initStoreType, "store-type", "mongo", "entry store backend (mongo, sqlite, memory)")
	configInitCmd.Flags().StringVar(&initStoreHost, "store-host", "localhost", "store host")
	configInitCmd.Flags().IntVar(&initStorePort, "store-port", 27017, "store port")
	configInitCmd.Flags().StringVar(&initStoreUser, "store-user", "", "store user (prompts for password)")
	configInitCmd.Flags().StringVar(&initStoreDB, "store-db", "dmp", "store database name")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	addCmd.Flags().StringVar(&addUser, "user", "", "owning user id")
	addCmd.Flags().StringVar(&addPath, "path", "", "file location")
	addCmd.Flags().StringVar(&addPathType, "path-type", "file", "path type (file, dir, link)")
	addCmd.Flags().StringVar(&addFileType, "file-type", "", "file format tag")
	addCmd.Flags().Int64Var(&addSize, "size", 0, "file size in bytes")
	addCmd.Flags().StringVar(&addParentDir, "parent-dir", "", "id of the containing dir record")
	addCmd.Flags().StringVar(&addDataType, "data-type", "", "assay category (RNA-seq, HiC, ...)")
	addCmd.Flags().Int64Var(&addTaxon, "taxon", 0, "taxon id")
	addCmd.Flags().StringVar(&addCompressed, "compressed", "", "compression (gzip, zip)")
	addCmd.Flags().StringArrayVar(&addSources, "source", nil, "id of a file this one was derived from (repeatable)")
	addCmd.Flags().StringArrayVar(&addMeta, "meta", nil, "metadata key=value (repeatable)")
	_ = addCmd.MarkFlagRequired("user")
	_ = addCmd.MarkFlagRequired("path")
	_ = addCmd.MarkFlagRequired("file-type")
	_ = addCmd.MarkFlagRequired("taxon")

	filesCmd.Flags().StringVar(&filesFileType, "file-type", "", "filter by file format tag")
	filesCmd.Flags().StringVar(&filesDataType, "data-type", "", "filter by assay category")
	filesCmd.Flags().Int64Var(&filesTaxon, "taxon", 0, "filter by taxon id")
	filesCmd.Flags().StringVar(&filesAssembly, "assembly", "", "filter by genome assembly")
	filesCmd.Flags().StringVar(&filesPath, "path", "", "filter by file path")
	filesCmd.Flags().BoolVar(&filesSummary, "summary", false, "suppress file paths in the output")
	filesCmd.Flags().BoolVar(&filesURLs, "urls", false, "print public URLs instead of records")
	filesCmd.MarkFlagsMutuallyExclusive("file-type", "data-type", "taxon", "assembly", "path")

	metaCmd.AddCommand(metaAddCmd)
	metaCmd.AddCommand(metaRmCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(loadSampleCmd)
}
