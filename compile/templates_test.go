package compile

import "testing"

func TestBuildValues(t *testing.T) {
	tests := []struct {
		src  string
		want Values
	}{
		{"/work/styles/app.scss", Values{Name: "app", Ext: "scss", Source: "/work/styles/app.scss"}},
		{"theme.css", Values{Name: "theme", Ext: "css", Source: "theme.css"}},
		{"/work/noext", Values{Name: "noext", Ext: "", Source: "/work/noext"}},
	}
	for _, tt := range tests {
		if got := buildValues(tt.src); got != tt.want {
			t.Errorf("buildValues(%q) = %+v, want %+v", tt.src, got, tt.want)
		}
	}
}

func TestExpandOutputName(t *testing.T) {
	v := buildValues("/work/styles/app.scss")

	tests := []struct {
		name    string
		tmpl    string
		want    string
		wantErr bool
	}{
		{"default", "{{ .Name }}.css", "app.css", false},
		{"suffix added", "{{ .Name }}.min", "app.min.css", false},
		{"sprig function", "{{ .Name | upper }}.css", "APP.css", false},
		{"source extension", "{{ .Name }}-{{ .Ext }}", "app-scss.css", false},
		{"broken template", "{{ .Name", "", true},
		{"unknown variable", "{{ .Nope }}.css", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandOutputName(tt.tmpl, v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandOutputName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expandOutputName() = %q, want %q", got, tt.want)
			}
		})
	}
}
