/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"canvasstudio/internal/config"
	"canvasstudio/internal/crash"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/export"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/mcpserver"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/tui"
	"canvasstudio/internal/ui"
	"canvasstudio/internal/version"
	"canvasstudio/internal/workspace"
)

var (
	imaginePrompt string
	imagineAspect string
	imagineOut    string

	askDeep  bool
	askDemo  bool
	askWidth int
	askStyle string

	exportDemo  bool
	exportOut   string
	exportScale float64

	mcpDemo bool

	historyLimit int
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Canvas Studio")
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the desktop canvas (build with -tags fyne)",
	RunE: func(*cobra.Command, []string) error {
		return ui.Run(ui.Options{
			Config:   app.cfg,
			Provider: app.provider(),
			Media:    app.media,
			Catalog:  app.catalog,
			Recorder: app.tele,
		})
	},
}

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List or work through guided lessons",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lesson catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), tui.LessonList(app.catalog.List()))
	},
}

var lessonsRunCmd = &cobra.Command{
	Use:   "run <lesson-id>",
	Short: "Work through a lesson checklist in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, ok := app.catalog.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown lesson %q; see 'canvasstudio lessons list'", args[0])
		}
		st := workspace.New(workspace.Options{})
		st.SelectLesson(l)
		return tui.RunLesson(st, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func logNotice(n orchestrator.Notice) {
	if n.Level == orchestrator.LevelError {
		app.log.Error("notice", slog.String("op", n.Op), slog.String("msg", n.Message))
	}
}

var imagineCmd = &cobra.Command{
	Use:   "imagine",
	Short: "Generate one image and write it to a file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(imaginePrompt) == "" {
			return errors.New("--prompt is required")
		}
		st, orch := app.headless(logNotice)
		defer orch.Close()
		defer crash.Recover(app.crashSession(func() string { return fmt.Sprintf("imagine nodes=%d", st.Len()) }))

		n, err := orch.GenerateImage(cmd.Context(), orchestrator.ImageRequest{
			Prompt: imaginePrompt,
			Aspect: genai.AspectRatio(imagineAspect),
		})
		if err != nil {
			return err
		}
		img := n.Data.(domain.ImageData)
		out := imagineOut
		if out == "" {
			out = "image" + extFor(img.MIMEType)
		}
		if err := os.WriteFile(out, img.Raw, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Wrote", out)
		return nil
	},
}

func extFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ".png"
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant about a canvas",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, orch := app.headless(nil)
		defer orch.Close()
		if askDemo {
			buildDemo(st)
		}
		reply, err := orch.Ask(cmd.Context(), strings.Join(args, " "), askDeep)
		if err != nil {
			return err
		}
		out, err := tui.Markdown(reply, askWidth, askStyle)
		if err != nil {
			app.log.Warn("markdown render failed", slog.Any("err", err))
			out = reply + "\n"
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a canvas snapshot to PNG or PDF",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st := workspace.New(workspace.Options{})
		if exportDemo {
			buildDemo(st)
		}
		err := export.ToFile(exportOut, st.Nodes(), export.Options{Scale: exportScale, Title: "Canvas Studio"})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d nodes to %s\n", st.Len(), exportOut)
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the canvas as MCP tools over stdio",
	RunE: func(*cobra.Command, []string) error {
		st, orch := app.headless(logNotice)
		defer orch.Close()
		if mcpDemo {
			buildDemo(st)
		}
		app.log.Info("serving MCP on stdio", slog.Int("nodes", st.Len()))
		return mcpserver.New(mcpserver.Deps{Store: st, Orchestrator: orch, Catalog: app.catalog}).ServeStdio()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generations from the media cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if app.media == nil {
			return errors.New("media cache is not configured")
		}
		gs, err := app.media.RecentGenerations(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.History(gs))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the user configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := config.ConfigPath()
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		if app.apiKey != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "# provider API key: set")
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(app.cfg)
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Store the provider API key in the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(app.cfg, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
		return nil
	},
}

func init() {
	imagineCmd.Flags().StringVar(&imaginePrompt, "prompt", "", "What to draw")
	imagineCmd.Flags().StringVar(&imagineAspect, "aspect", string(genai.Square), "Aspect ratio (1:1, 16:9, 9:16, 4:3, 3:4)")
	imagineCmd.Flags().StringVarP(&imagineOut, "out", "o", "", "Output file (default image.<ext>)")

	askCmd.Flags().BoolVar(&askDeep, "deep", false, "Use the reasoning model")
	askCmd.Flags().BoolVar(&askDemo, "demo", false, "Ask about the demo canvas")
	askCmd.Flags().IntVar(&askWidth, "width", 100, "Wrap width for the reply")
	askCmd.Flags().StringVar(&askStyle, "style", "", "glamour style (dark, light, notty); empty follows the terminal")

	exportCmd.Flags().BoolVar(&exportDemo, "demo", false, "Export the demo canvas")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "canvas.png", "Output file (.png or .pdf)")
	exportCmd.Flags().Float64Var(&exportScale, "scale", 1, "Pixels (PNG) or points (PDF) per world unit")

	mcpCmd.Flags().BoolVar(&mcpDemo, "demo", false, "Start with the demo canvas")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of generations to show")

	lessonsCmd.AddCommand(lessonsListCmd, lessonsRunCmd)
	configCmd.AddCommand(configShowCmd, configSetKeyCmd)
	rootCmd.AddCommand(versionCmd, uiCmd, lessonsCmd, imagineCmd, askCmd, exportCmd, mcpCmd, historyCmd, configCmd)
}
